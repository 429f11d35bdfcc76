package supervisor

import (
	"testing"

	"gobdc/core"
)

type nopPWM struct{ staged core.BridgeProgram }

func (p *nopPWM) Init(uint32) error { return nil }
func (p *nopPWM) Stage(prog core.BridgeProgram) { p.staged = prog }
func (p *nopPWM) SyncUpdate() {}
func (p *nopPWM) ClearTrigger() {}

type gate struct {
	faulted bool
	resets  int
}

func (g *gate) Init() error { return nil }
func (g *gate) Faulted() bool { return g.faulted }
func (g *gate) PulseReset() { g.resets++ }

type pins struct{}

func (pins) CoastSelected() bool { return false }
func (pins) ForwardClear() bool { return true }
func (pins) ReverseClear() bool { return true }
func (pins) Set(bool, bool) {}

type rampPins struct{ pins }

func (rampPins) ProbeAutoRamp() bool { return true }

type fifo struct{ codes []uint16 }

func (f *fifo) Init() error { return nil }
func (f *fifo) ClearInterrupt() {}
func (f *fifo) Empty() bool { return len(f.codes) == 0 }

func (f *fifo) Read() uint16 {
	v := f.codes[0]
	f.codes = f.codes[1:]
	return v
}

type qei struct{}

func (qei) Init() error { return nil }
func (qei) Count() int32 { return 0 }
func (qei) SetCount(int32) {}
func (qei) Direction() int32 { return 1 }
func (qei) Value() uint32 { return 0 }

type watchdog struct{}

func (watchdog) Configure(uint32, bool) error { return nil }
func (watchdog) Reload() {}
func (watchdog) ClearInterrupt() {}

type fan struct{}

func (fan) Set(bool) {}

type rig struct {
	pwm   *nopPWM
	gate  *gate
	adc   *fifo
	board *core.Board
	sup   *Supervisor
}

func newRig(t *testing.T, limits core.LimitInputs) *rig {
	t.Helper()
	r := &rig{pwm: &nopPWM{}, gate: &gate{}, adc: &fifo{}}
	r.board = core.NewBoard(core.Drivers{
		Bridge:    r.pwm,
		Gate:      r.gate,
		Jumper:    pins{},
		Limits:    limits,
		ADC:       r.adc,
		QEI:       qei{},
		EdgeTimer: qei{},
		Watchdog:  watchdog{},
		LED:       pins{},
		Fan:       fan{},
	})
	if err := r.board.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r.sup = New(r.board)
	r.sup.Start(0)
	return r
}

// calibrate runs enough quiet conversions to resolve the current zero.
func (r *rig) calibrate(t *testing.T) {
	t.Helper()
	for i := 0; i < 128; i++ {
		r.convert()
	}
	if !r.board.ADC().CalibrationDone() {
		t.Fatal("calibration not done")
	}
}

func (r *rig) convert() {
	r.adc.codes = append(r.adc.codes, 20, 300, 0, 600)
	r.board.OnConversionComplete()
}

func (r *rig) steps(n int) {
	for i := 0; i < n; i++ {
		r.sup.Step()
	}
}

// running returns a rig in the run state with a UART link.
func running(t *testing.T) *rig {
	t.Helper()
	r := newRig(t, pins{})
	r.calibrate(t)
	r.board.Pet(core.LinkUART)
	r.sup.Step()
	if r.sup.State() != StateRun {
		t.Fatalf("state = %v, want run", r.sup.State())
	}
	return r
}

func TestWaitsForCalibration(t *testing.T) {
	r := newRig(t, pins{})
	r.board.Pet(core.LinkCAN)
	r.steps(10)
	if r.sup.State() != StateWaitForLink {
		t.Fatalf("state = %v before calibration", r.sup.State())
	}
	r.calibrate(t)
	r.sup.Step()
	if r.sup.State() != StateRun {
		t.Errorf("state = %v, want run", r.sup.State())
	}
}

func TestSetVoltagePlateaus(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{0, 0},
		{2048, 0},
		{-2048, 0},
		{2049, 2049},
		{-2049, -2049},
		{31742, 31742},
		{31743, core.VoltageFull},
		{-31743, -31743},
		{-31744, core.VoltageFull * -1},
		{-40000, -core.VoltageFull},
	}
	for _, tt := range tests {
		r := running(t)
		r.sup.SetVoltage(tt.in)
		if got := r.sup.Target(); got != tt.want {
			t.Errorf("SetVoltage(%d): target = %d, want %d", tt.in, got, tt.want)
		}
		r.sup.Step()
		if got := r.board.Bridge().Voltage(); got != tt.want {
			t.Errorf("SetVoltage(%d): bridge = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRamp(t *testing.T) {
	r := running(t)
	r.sup.SetRampRate(core.AutoRampRate)
	r.sup.SetVoltage(16384)

	r.sup.Step()
	if got := r.board.Bridge().Voltage(); got != core.AutoRampRate {
		t.Fatalf("after one tick voltage = %d, want %d", got, core.AutoRampRate)
	}
	r.steps(30)
	if got := r.board.Bridge().Voltage(); got != 31*core.AutoRampRate {
		t.Fatalf("after 31 ticks voltage = %d", got)
	}
	r.sup.Step()
	if got := r.board.Bridge().Voltage(); got != 16384 {
		t.Errorf("voltage = %d, want the target without overshoot", got)
	}

	r.sup.SetVoltage(-16384)
	r.sup.Step()
	if got := r.board.Bridge().Voltage(); got != 16384-core.AutoRampRate {
		t.Errorf("ramp down voltage = %d", got)
	}
	r.sup.SetVoltage(0)
	r.sup.Step()
	if got := r.board.Bridge().Voltage(); got != 0 {
		t.Errorf("neutral voltage = %d, want an immediate stop", got)
	}
}

func TestAutoRampAdopted(t *testing.T) {
	r := newRig(t, rampPins{})
	if !r.board.Limit().AutoRamp() {
		t.Fatal("auto-ramp not probed")
	}
	if r.sup.RampRate() != core.AutoRampRate {
		t.Errorf("ramp rate = %d, want %d", r.sup.RampRate(), core.AutoRampRate)
	}
}

func TestFaultHoldoff(t *testing.T) {
	r := running(t)
	r.sup.SetVoltage(20000)
	r.sup.Step()

	r.gate.faulted = true
	r.convert()
	r.gate.faulted = false
	r.sup.Step()
	if r.sup.State() != StateFault {
		t.Fatalf("state = %v, want fault", r.sup.State())
	}
	if r.board.Bridge().Voltage() != 0 || r.sup.Target() != 0 {
		t.Errorf("voltage=%d target=%d, want neutral", r.board.Bridge().Voltage(), r.sup.Target())
	}

	r.sup.SetVoltage(20000)
	if r.sup.Target() != 0 {
		t.Error("command accepted during fault")
	}

	r.steps(core.FaultTime - 1)
	if r.sup.State() != StateFault {
		t.Fatalf("fault cleared early")
	}
	if r.board.Faults().Active() != core.FaultGateDrive {
		t.Errorf("active = %v during hold-off", r.board.Faults().Active())
	}
	r.sup.Step()
	if r.sup.State() != StateRun {
		t.Fatalf("state = %v after hold-off, want run", r.sup.State())
	}
	if r.board.Faults().Active() != 0 {
		t.Errorf("active = %v after hold-off", r.board.Faults().Active())
	}
	if r.gate.resets != 2 {
		t.Errorf("gate resets = %d, want init and hold-off", r.gate.resets)
	}
	if r.board.Faults().Sticky(false)&core.FaultGateDrive == 0 {
		t.Error("sticky flag lost")
	}
}

func TestFaultRestartsHoldoff(t *testing.T) {
	r := running(t)
	faults := r.board.Faults()
	faults.SignalFault(core.FaultCurrent)
	r.sup.Step()

	r.steps(core.FaultTime / 2)
	faults.SignalFault(core.FaultCurrent)
	r.steps(core.FaultTime - 1)
	if r.sup.State() != StateFault {
		t.Fatalf("repeat signal did not restart the hold-off")
	}
	r.sup.Step()
	if r.sup.State() != StateRun {
		t.Errorf("state = %v, want run", r.sup.State())
	}
}

func TestLinkLoss(t *testing.T) {
	r := running(t)
	r.sup.SetVoltage(20000)
	r.sup.Step()

	r.board.OnWatchdogExpire()
	r.sup.Step()
	if r.sup.State() != StateWaitForLink {
		t.Fatalf("state = %v, want wait-for-link", r.sup.State())
	}
	if r.board.Bridge().Voltage() != 0 || r.sup.Target() != 0 {
		t.Error("bridge not neutral after link loss")
	}
	if r.board.Faults().Active() != 0 {
		t.Errorf("link loss latched %v", r.board.Faults().Active())
	}

	r.steps(5)
	if r.sup.State() != StateWaitForLink {
		t.Fatal("left wait-for-link without a link")
	}
	r.board.Pet(core.LinkCAN)
	r.sup.Step()
	if r.sup.State() != StateRun {
		t.Errorf("state = %v after link returned, want run", r.sup.State())
	}
}

func TestFaultWhileWaiting(t *testing.T) {
	r := newRig(t, pins{})
	r.calibrate(t)
	r.board.Faults().SignalFault(core.FaultTemperature)
	r.steps(10)

	r.board.Pet(core.LinkUART)
	r.sup.Step()
	if r.sup.State() != StateFault {
		t.Fatalf("state = %v, want fault with hold-off left", r.sup.State())
	}
	r.steps(core.FaultTime - 12)
	if r.sup.State() != StateFault {
		t.Fatal("hold-off ended early")
	}
	r.sup.Step()
	if r.sup.State() != StateRun || r.board.Faults().Active() != 0 {
		t.Errorf("state=%v active=%v", r.sup.State(), r.board.Faults().Active())
	}
}

func TestFaultEndsWithoutLink(t *testing.T) {
	r := running(t)
	r.board.Faults().SignalFault(core.FaultVBus)
	r.sup.Step()
	r.board.OnWatchdogExpire()
	r.steps(core.FaultTime)
	if r.sup.State() != StateWaitForLink {
		t.Errorf("state = %v, want wait-for-link", r.sup.State())
	}
}

func TestPoll(t *testing.T) {
	r := newRig(t, pins{})
	if n := r.sup.Poll(3 * TickPeriod); n != 4 {
		t.Errorf("Poll ran %d ticks, want 4", n)
	}
	if n := r.sup.Poll(3*TickPeriod + 1); n != 0 {
		t.Errorf("Poll ran %d ticks before the next period", n)
	}
	if r.sup.Ticks() != 4 {
		t.Errorf("Ticks = %d", r.sup.Ticks())
	}

	r.sup.Start(10 * TickPeriod)
	if n := r.sup.Poll(10 * TickPeriod); n != 1 {
		t.Errorf("restarted timer ran %d ticks, want 1", n)
	}
}
