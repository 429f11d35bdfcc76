// Package supervisor runs the drive state machine that sits above the
// motor-control core: it owns the commanded voltage, holds the bridge in
// neutral while a fault times out, and parks it when the command link drops.
package supervisor

import (
	"sync/atomic"

	"gobdc/core"
)

// State is the supervisor state.
type State uint32

const (
	StateWaitForLink State = iota
	StateRun
	StateFault
)

func (s State) String() string {
	switch s {
	case StateRun:
		return "run"
	case StateFault:
		return "fault"
	}
	return "wait-for-link"
}

// Command plateaus. Targets inside them snap to neutral or full scale.
const (
	ReversePlateau = 1024
	NeutralPlateau = 2048
	ForwardPlateau = 1024
)

// TickPeriod is the slow tick period in system clocks.
const TickPeriod = core.SysClkPerUpdate

// Supervisor drives a core.Board from the main loop.
type Supervisor struct {
	board *core.Board
	sched core.Scheduler
	timer *core.Timer

	state   atomic.Uint32
	target  atomic.Int32
	rate    atomic.Uint32
	holdoff uint32 // ticks left before faults are cleared
	ticks   uint32
}

// New returns a supervisor for b, waiting for a link.
func New(b *core.Board) *Supervisor {
	return &Supervisor{board: b}
}

// Start schedules the slow tick every TickPeriod clocks from now. The
// auto-ramp rate is adopted if the limit probe found the jumper.
func (s *Supervisor) Start(now uint32) {
	if s.board.Limit().AutoRamp() {
		s.SetRampRate(core.AutoRampRate)
	}
	if s.timer != nil {
		s.sched.Remove(s.timer)
	}
	s.timer = core.Every(now, TickPeriod, func(uint32) { s.Step() })
	s.sched.Add(s.timer)
}

// Poll runs every slow tick due at now and returns how many ran.
func (s *Supervisor) Poll(now uint32) int {
	return s.sched.Dispatch(now)
}

// SetVoltage sets the voltage target. Commands are ignored while a fault
// holds the bridge.
func (s *Supervisor) SetVoltage(v int32) {
	if s.State() == StateFault {
		return
	}
	switch {
	case v < -core.VoltageFull+ReversePlateau:
		v = -core.VoltageFull
	case v >= -NeutralPlateau && v <= NeutralPlateau:
		v = 0
	case v >= core.VoltageFull-ForwardPlateau:
		v = core.VoltageFull
	}
	s.target.Store(v)
}

// Target returns the voltage target.
func (s *Supervisor) Target() int32 {
	return s.target.Load()
}

// SetRampRate sets the slew applied to the bridge voltage per tick. Zero
// steps straight to the target.
func (s *Supervisor) SetRampRate(r uint32) {
	s.rate.Store(min(r, 2*core.VoltageFull))
}

// RampRate returns the slew per tick.
func (s *Supervisor) RampRate() uint32 { return s.rate.Load() }

// State returns the supervisor state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Ticks returns the number of slow ticks run.
func (s *Supervisor) Ticks() uint32 { return s.ticks }

func (s *Supervisor) setState(st State) {
	if State(s.state.Swap(uint32(st))) != st {
		core.DebugPrintln("supervisor: " + st.String())
	}
}

// Step runs one slow tick: the state machine, then the board tick.
func (s *Supervisor) Step() {
	s.ticks++
	switch s.State() {
	case StateWaitForLink:
		s.waitForLink()
	case StateRun:
		s.run()
	case StateFault:
		s.fault()
	}
	s.board.Tick()
}

func (s *Supervisor) waitForLink() {
	if !s.board.ADC().CalibrationDone() {
		return
	}
	faults := s.board.Faults()
	if faults.TakePending() != 0 {
		s.holdoff = core.FaultTime
	}
	if s.holdoff > 0 {
		s.holdoff--
		if s.holdoff == 0 {
			faults.ClearActive()
		}
	}

	link := s.board.Link()
	link.Acknowledge()
	if !link.Active() {
		return
	}
	if s.holdoff != 0 {
		s.setState(StateFault)
	} else {
		s.setState(StateRun)
	}
}

func (s *Supervisor) run() {
	s.applyVoltage()

	if s.board.Link().Acknowledge() {
		s.forceNeutral()
		s.setState(StateWaitForLink)
		return
	}
	if s.board.Faults().TakePending() != 0 {
		s.forceNeutral()
		s.holdoff = core.FaultTime
		s.setState(StateFault)
	}
}

func (s *Supervisor) fault() {
	faults := s.board.Faults()
	if faults.TakePending() != 0 {
		s.holdoff = core.FaultTime
	}
	if s.holdoff > 0 {
		s.holdoff--
	}
	if s.holdoff != 0 {
		return
	}

	faults.ClearActive()
	s.board.Bridge().GateDriverReset()
	if s.board.Link().Acknowledge() || !s.board.Link().Active() {
		s.setState(StateWaitForLink)
	} else {
		s.setState(StateRun)
	}
}

// applyVoltage moves the bridge voltage toward the target, limited to the
// ramp rate unless the target is neutral.
func (s *Supervisor) applyVoltage() {
	bridge := s.board.Bridge()
	v, target := bridge.Voltage(), s.target.Load()
	if v == target {
		return
	}
	rate := int32(s.rate.Load())
	switch {
	case rate == 0 || target == 0:
		v = target
	case v < target:
		v = min(v+rate, target)
	default:
		v = max(v-rate, target)
	}
	bridge.SetVoltage(v)
}

func (s *Supervisor) forceNeutral() {
	s.target.Store(0)
	s.board.Bridge().SetVoltage(0)
}
