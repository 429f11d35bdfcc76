package core

// GateAction is what a generator does with one gate output over a carrier
// period.
type GateAction uint8

const (
	GateOff   GateAction = iota // held low for the whole period
	GateOn                      // held high for the whole period
	GatePulse                   // toggled at the leg comparator, centered on the period
)

func (a GateAction) String() string {
	switch a {
	case GateOff:
		return "off"
	case GateOn:
		return "on"
	case GatePulse:
		return "pulse"
	}
	return "?"
}

// LegProgram is the register image for one half-bridge leg.
type LegProgram struct {
	High    GateAction
	Low     GateAction
	Compare uint32 // up/down counter compare; CompareIgnore when not pulsing
}

// BridgeProgram is the complete register image for both legs plus the ADC
// trigger comparator, which lives on the M+ generator.
type BridgeProgram struct {
	Plus       LegProgram
	Minus      LegProgram
	ADCCompare uint32
}

// Switching reports whether any gate is pulsing.
func (p BridgeProgram) Switching() bool {
	return p.Plus.High == GatePulse || p.Plus.Low == GatePulse ||
		p.Minus.High == GatePulse || p.Minus.Low == GatePulse
}

// BridgePWM is the pair of synchronized center-aligned PWM generators that
// drive the H-bridge. Stage writes shadow registers only; nothing reaches the
// gates until SyncUpdate, which commits both generators at the next counter
// zero so neither leg can be seen half-updated.
type BridgePWM interface {
	// Init configures both generators for up/down counting with the given
	// period and enables the ADC trigger on the M+ generator.
	Init(periodTicks uint32) error

	// Stage loads a register image into the shadow registers.
	Stage(p BridgeProgram)

	// SyncUpdate commits the staged image to both generators at once.
	SyncUpdate()

	// ClearTrigger acknowledges the generator's ADC trigger event so the
	// next period can retrigger the sequencer.
	ClearTrigger()
}

var bridgeDriver BridgePWM

// SetBridgeDriver is called by target-specific code to register its driver.
func SetBridgeDriver(d BridgePWM) {
	bridgeDriver = d
}

// MustBridge returns the configured driver or panics if missing.
func MustBridge() BridgePWM {
	if bridgeDriver == nil {
		panic("bridge PWM driver not configured")
	}
	return bridgeDriver
}

// PhaseCorrectLevels maps the leg onto a phase-correct counter running
// 0..top..0 whose outputs are high while the counter is below their level.
// The low gate's channel is assumed inverted, so its level is the
// complement: a pulsing leg gives both channels the same level.
func (p LegProgram) PhaseCorrectLevels(top uint32) (high, low uint32) {
	full := top + 1
	switch p.High {
	case GateOn:
		high = full
	case GatePulse:
		high = full - min(p.Compare, full)
	}
	switch p.Low {
	case GateOff:
		low = full
	case GatePulse:
		low = high
	}
	return high, low
}
