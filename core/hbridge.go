package core

import "sync/atomic"

// BrakeCoastMode selects what the bridge does when it is not driving.
type BrakeCoastMode uint32

const (
	// ModeFollowJumper reads the brake/coast jumper every period.
	ModeFollowJumper BrakeCoastMode = iota
	// ModeBrake shorts the winding through both low sides (slow decay).
	ModeBrake
	// ModeCoast opens every switch (fast decay).
	ModeCoast
)

func (m BrakeCoastMode) String() string {
	switch m {
	case ModeBrake:
		return "brake"
	case ModeCoast:
		return "coast"
	}
	return "jumper"
}

// LimitStatus reports whether motion is allowed in each direction.
type LimitStatus interface {
	ForwardOK() bool
	ReverseOK() bool
}

// HBridge converts the commanded voltage into generator programming for the
// two bridge legs. Tick runs in the carrier ISR; the setters may be called
// from any context and take effect on the next Tick.
type HBridge struct {
	pwm    BridgePWM
	gate   GateDriver
	jumper ModeJumper
	limits LimitStatus
	faults FaultSink

	voltage atomic.Int32
	limit   atomic.Int32
	mode    atomic.Uint32

	last BridgeProgram // owned by the ISR
}

// NewHBridge wires a bridge driver. The voltage limit starts at full scale
// and the mode follows the jumper.
func NewHBridge(pwm BridgePWM, gate GateDriver, jumper ModeJumper, limits LimitStatus, faults FaultSink) *HBridge {
	h := &HBridge{
		pwm:    pwm,
		gate:   gate,
		jumper: jumper,
		limits: limits,
		faults: faults,
	}
	h.limit.Store(VoltageFull)
	return h
}

// Init configures the generators, resets the gate driver and parks the
// bridge in its neutral state.
func (h *HBridge) Init() error {
	if err := h.gate.Init(); err != nil {
		return err
	}
	h.gate.PulseReset()
	if err := h.pwm.Init(PWMPeriodTicks); err != nil {
		return err
	}
	h.FirmwareUpdateShutdown()
	return nil
}

// SetVoltage sets the commanded voltage as a fraction of the limit,
// clamped to [-32767, 32767].
func (h *HBridge) SetVoltage(v int32) {
	if v > VoltageFull {
		v = VoltageFull
	} else if v < -VoltageFull {
		v = -VoltageFull
	}
	h.voltage.Store(v)
}

// Voltage returns the commanded voltage.
func (h *HBridge) Voltage() int32 {
	return h.voltage.Load()
}

// SetVoltageLimit sets the full-scale output, clamped to [0, 32767].
func (h *HBridge) SetVoltageLimit(max int32) {
	if max < 0 {
		max = 0
	} else if max > VoltageFull {
		max = VoltageFull
	}
	h.limit.Store(max)
}

// VoltageLimit returns the full-scale output.
func (h *HBridge) VoltageLimit() int32 {
	return h.limit.Load()
}

// SetMaxVoltage sets the limit from a bus voltage in 8.8 volts, relative to
// a 12V full scale.
func (h *HBridge) SetMaxVoltage(v Fix8) {
	h.SetVoltageLimit(int32(v) * VoltageFull / MaxVoltageFullScale)
}

// MaxVoltage returns the limit as 8.8 volts.
func (h *HBridge) MaxVoltage() Fix8 {
	return Fix8(h.limit.Load() * MaxVoltageFullScale / VoltageFull)
}

// SetBrakeCoastMode selects brake, coast or jumper. It applies the next time
// the bridge is neutral.
func (h *HBridge) SetBrakeCoastMode(m BrakeCoastMode) {
	h.mode.Store(uint32(m))
}

// BrakeCoastMode returns the configured mode, not the resolved one.
func (h *HBridge) BrakeCoastMode() BrakeCoastMode {
	return BrakeCoastMode(h.mode.Load())
}

// GateDriverReset pulses the gate driver reset line.
func (h *HBridge) GateDriverReset() {
	h.gate.PulseReset()
}

// Program returns the image committed by the last Tick. Tests and
// telemetry only; it is not synchronized with the ISR.
func (h *HBridge) Program() BridgeProgram {
	return h.last
}

// coasting resolves the configured mode against the jumper.
func (h *HBridge) coasting() bool {
	switch BrakeCoastMode(h.mode.Load()) {
	case ModeCoast:
		return true
	case ModeFollowJumper:
		return h.jumper.CoastSelected()
	}
	return false
}

// OnTime returns the high-side on-time in SysClk cycles for a command and
// limit. The two divides keep each product inside 32 bits.
func OnTime(command, limit int32) uint32 {
	if command < 0 {
		command = -command
	}
	return uint32((command*limit)/VoltageFull) * PWMPeriodTicks / VoltageFull
}

// neutralProgram is the non-switching brake or coast image.
func neutralProgram(coast bool) BridgeProgram {
	low := GateOn
	if coast {
		low = GateOff
	}
	return BridgeProgram{
		Plus:       LegProgram{High: GateOff, Low: low, Compare: CompareIgnore},
		Minus:      LegProgram{High: GateOff, Low: low, Compare: CompareIgnore},
		ADCCompare: ADCSampleDelta,
	}
}

// driveProgram is the image for a nonzero command on the active leg, with
// the other leg's low side held on.
func driveProgram(on uint32, reverse, coast bool) BridgeProgram {
	var active LegProgram
	adc := uint32(ADCSampleDelta)
	switch {
	case on >= PWMPeriodTicks-PWMMinPulseTicks:
		active = LegProgram{High: GateOn, Low: GateOff, Compare: CompareIgnore}
	case on < PWMMinPulseTicks:
		return neutralProgram(coast)
	default:
		cmp := (PWMPeriodTicks - on) / 2
		active = LegProgram{High: GatePulse, Low: GatePulse, Compare: cmp}
		adc = cmp + ADCSampleDelta
	}
	idle := LegProgram{High: GateOff, Low: GateOn, Compare: CompareIgnore}
	if reverse {
		return BridgeProgram{Plus: idle, Minus: active, ADCCompare: adc}
	}
	return BridgeProgram{Plus: active, Minus: idle, ADCCompare: adc}
}

// Tick updates the bridge for the next carrier period. It is called from
// the ADC ISR once per period.
func (h *HBridge) Tick() {
	if h.gate.Faulted() {
		h.faults.SignalFault(FaultGateDrive)
	}

	coast := h.coasting()
	v := h.voltage.Load()

	var p BridgeProgram
	switch {
	case v == 0:
		p = neutralProgram(coast)
	case v > 0 && !h.limits.ForwardOK(), v < 0 && !h.limits.ReverseOK():
		p = neutralProgram(coast)
	default:
		p = driveProgram(OnTime(v, h.limit.Load()), v < 0, coast)
	}
	h.commit(p)
}

// FirmwareUpdateShutdown parks the bridge in brake or coast immediately.
// Keep the voltage at zero afterwards, or the next Tick drives again.
func (h *HBridge) FirmwareUpdateShutdown() {
	h.commit(neutralProgram(h.coasting()))
}

func (h *HBridge) commit(p BridgeProgram) {
	h.pwm.Stage(p)
	h.pwm.SyncUpdate()
	h.last = p
}
