// Status LED annunciator
package core

import "sync/atomic"

// LEDState is what the status LED is currently showing.
type LEDState uint8

const (
	LEDInitial LEDState = iota
	LEDForwardFull
	LEDForward
	LEDNeutral
	LEDReverse
	LEDReverseFull
	LEDLimitFault
	LEDLinkBad
	LEDFault
	LEDDelay
	LEDNoID
	LEDAssign
	LEDBlinkID
	LEDCalibrate
)

var ledStateNames = [...]string{
	"initial", "forward-full", "forward", "neutral", "reverse",
	"reverse-full", "limit-fault", "link-bad", "fault", "delay",
	"no-id", "assign", "blink-id", "calibrate",
}

func (s LEDState) String() string {
	if int(s) < len(ledStateNames) {
		return ledStateNames[s]
	}
	return "unknown"
}

type ledFlag uint32

const (
	ledParamReset ledFlag = 1 << iota
	ledAssignStart
	ledAssignStop
	ledBlinkID
	ledCalStart
	ledCalSuccess
	ledCalFail
)

// LinkStatus is the view of the command link the annunciator needs.
type LinkStatus interface {
	Type() LinkType
	Active() bool
}

// FaultStatus reports the latched faults.
type FaultStatus interface {
	Active() Fault
}

// ledInputs is one tick's worth of board state.
type ledInputs struct {
	link       LinkType
	linkActive bool
	faults     Fault
	voltage    int32
	forwardOK  bool
	reverseOK  bool
	device     uint8
	flags      ledFlag
	blinkID    uint32
}

type ledMachine struct {
	state LEDState
	mode  uint32 // ticks left in Delay and BlinkID
	blink blinker
}

func (m *ledMachine) show(p pattern, s LEDState) {
	m.blink.load(p)
	m.state = s
}

// countDown decrements the mode counter, stopping at zero, and reports
// whether it has expired.
func (m *ledMachine) countDown() bool {
	if m.mode > 0 {
		m.mode--
	}
	return m.mode == 0
}

// checkDevice shows the missing-ID pattern when the board has no device
// number and is commanded over a link that needs one. It reports whether
// the link check should run.
func (m *ledMachine) checkDevice(in ledInputs) bool {
	if in.device == 0 && (in.link == LinkCAN || in.link == LinkUART) {
		m.show(blink(100, ColorAmber, 100, ColorBlack), LEDNoID)
		return false
	}
	return true
}

// nextLED is the annunciator transition function. It returns the new
// machine and the announcement flags it consumed. The blinker is loaded but
// not stepped.
func nextLED(m ledMachine, in ledInputs) (ledMachine, ledFlag) {
	var used ledFlag

	switch {
	case in.flags&ledParamReset != 0:
		used |= ledParamReset
		m.show(blink(500, ColorRed, 500, ColorGreen), LEDDelay)
		m.mode = MSToUpdates(5000)
	case in.flags&ledAssignStart != 0:
		used |= ledAssignStart
		m.show(blink(500, ColorGreen, 250, ColorBlack), LEDAssign)
	case in.flags&ledBlinkID != 0:
		used |= ledBlinkID
		m.show(blink(500, ColorBlack, 100, ColorAmber), LEDBlinkID)
		m.mode = in.blinkID * MSToUpdates(600)
	case in.flags&ledCalStart != 0:
		used |= ledCalStart | ledCalSuccess | ledCalFail
		in.flags &^= ledCalSuccess | ledCalFail
		m.show(blink(100, ColorRed, 100, ColorGreen), LEDCalibrate)
	}

	if in.faults != 0 && in.faults != FaultComm &&
		m.state != LEDLinkBad && m.state != LEDFault && m.state != LEDDelay {
		if in.faults&FaultCurrent != 0 {
			m.show(blink(250, ColorAmber, 500, ColorRed), LEDFault)
		} else {
			m.show(blink(500, ColorRed, 250, ColorBlack), LEDFault)
		}
	}

	checkLink := false
	switch m.state {
	case LEDLinkBad:
		if in.linkActive {
			m.show(solid(ColorAmber), LEDNeutral)
		} else {
			m.checkDevice(in)
		}
	case LEDFault:
		if in.faults == 0 {
			m.show(solid(ColorAmber), LEDNeutral)
		}
	case LEDDelay:
		if m.countDown() {
			m.show(solid(ColorAmber), LEDNeutral)
		}
	case LEDNoID:
		if in.link == LinkServo {
			m.state = LEDLinkBad
		}
	case LEDAssign:
		if in.flags&ledAssignStop != 0 {
			used |= ledAssignStop
			m.show(solid(ColorAmber), LEDNeutral)
		}
	case LEDBlinkID:
		if m.countDown() {
			m.show(solid(ColorBlack), LEDDelay)
			m.mode = MSToUpdates(1000)
		}
	case LEDCalibrate:
		switch {
		case in.flags&ledCalSuccess != 0:
			used |= ledCalSuccess
			m.show(blink(250, ColorGreen, 250, ColorAmber), LEDDelay)
			m.mode = MSToUpdates(5000)
		case in.flags&ledCalFail != 0:
			used |= ledCalFail
			m.show(blink(250, ColorRed, 250, ColorAmber), LEDDelay)
			m.mode = MSToUpdates(5000)
		}
	default:
		if checkLink = m.checkDevice(in); checkLink {
			m.showCommand(in)
		}
	}

	if checkLink && !in.linkActive {
		m.show(blink(250, ColorBlack, 500, ColorAmber), LEDLinkBad)
	}
	return m, used
}

// showCommand displays the commanded voltage and the limit interlock. A
// pattern is only reloaded on a change of state.
func (m *ledMachine) showCommand(in ledInputs) {
	v := in.voltage
	switch {
	case v > 0 && !in.forwardOK, v < 0 && !in.reverseOK:
		if m.state != LEDLimitFault {
			m.show(blink(500, ColorRed, 250, ColorBlack), LEDLimitFault)
		}
	case v >= VoltageFull && m.state != LEDForwardFull:
		m.show(solid(ColorGreen), LEDForwardFull)
	case v > 0 && v < VoltageFull && m.state != LEDForward:
		m.show(blink(100, ColorGreen, 100, ColorBlack), LEDForward)
	case v == 0 && m.state != LEDNeutral:
		m.show(solid(ColorAmber), LEDNeutral)
	case v > -VoltageFull && v < 0 && m.state != LEDReverse:
		m.show(blink(100, ColorRed, 100, ColorBlack), LEDReverse)
	case v <= -VoltageFull && m.state != LEDReverseFull:
		m.show(solid(ColorRed), LEDReverseFull)
	}
}

// LED runs the status annunciator from the slow tick.
type LED struct {
	out     StatusLED
	link    LinkStatus
	faults  FaultStatus
	limits  LimitStatus
	voltage func() int32

	flags   Bitset[ledFlag]
	blinkID atomic.Uint32
	device  atomic.Uint32
	frozen  atomic.Bool

	m     ledMachine // tick-owned
	state atomic.Uint32
	color atomic.Uint32
}

// NewLED wires the annunciator to the board state it displays.
func NewLED(out StatusLED, link LinkStatus, faults FaultStatus, limits LimitStatus, voltage func() int32) *LED {
	return &LED{out: out, link: link, faults: faults, limits: limits, voltage: voltage}
}

// Init turns the LED off.
func (l *LED) Init() {
	l.out.Set(false, false)
}

// SetDeviceNumber sets the network device number. Zero means unassigned.
func (l *LED) SetDeviceNumber(n uint8) {
	l.device.Store(uint32(n))
}

func (l *LED) AnnounceParamReset() { l.flags.Set(ledParamReset) }
func (l *LED) AnnounceAssignStart() { l.flags.Set(ledAssignStart) }
func (l *LED) AnnounceAssignStop() { l.flags.Set(ledAssignStop) }
func (l *LED) AnnounceCalibrationStart() { l.flags.Set(ledCalStart) }
func (l *LED) AnnounceCalibrationSuccess() { l.flags.Set(ledCalSuccess) }
func (l *LED) AnnounceCalibrationFail() { l.flags.Set(ledCalFail) }

// AnnounceBlinkID blinks the device number id times.
func (l *LED) AnnounceBlinkID(id uint8) {
	l.blinkID.Store(uint32(id))
	l.flags.Set(ledBlinkID)
}

// Tick runs from the slow tick.
func (l *LED) Tick() {
	if l.frozen.Load() {
		return
	}
	in := ledInputs{
		link:       l.link.Type(),
		linkActive: l.link.Active(),
		faults:     l.faults.Active(),
		voltage:    l.voltage(),
		forwardOK:  l.limits.ForwardOK(),
		reverseOK:  l.limits.ReverseOK(),
		device:     uint8(l.device.Load()),
		flags:      l.flags.Load(),
		blinkID:    l.blinkID.Load(),
	}
	m, used := nextLED(l.m, in)
	if used != 0 {
		l.flags.Clear(used)
	}
	if c, changed := m.blink.step(); changed {
		l.out.Set(c.Red(), c.Green())
		l.color.Store(uint32(c))
	}
	l.m = m
	l.state.Store(uint32(m.state))
}

// State returns the annunciator state.
func (l *LED) State() LEDState {
	return LEDState(l.state.Load())
}

// Color returns the color currently shown.
func (l *LED) Color() Color {
	return Color(l.color.Load())
}

// FirmwareUpdateShutdown turns the LED off and stops the annunciator.
func (l *LED) FirmwareUpdateShutdown() {
	l.frozen.Store(true)
	l.out.Set(false, false)
	l.color.Store(uint32(ColorBlack))
}
