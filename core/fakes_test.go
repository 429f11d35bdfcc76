package core

// Test doubles for the HAL interfaces, shared by the component tests.

type fakePWM struct {
	period  uint32
	staged  BridgeProgram
	syncs   int
	clears  int
	initErr error
}

func (p *fakePWM) Init(periodTicks uint32) error {
	p.period = periodTicks
	return p.initErr
}

func (p *fakePWM) Stage(prog BridgeProgram) { p.staged = prog }
func (p *fakePWM) SyncUpdate() { p.syncs++ }
func (p *fakePWM) ClearTrigger() { p.clears++ }

type fakeGate struct {
	faulted bool
	resets  int
}

func (g *fakeGate) Init() error { return nil }
func (g *fakeGate) Faulted() bool { return g.faulted }
func (g *fakeGate) PulseReset() { g.resets++ }

type fakeJumper struct{ coast bool }

func (j *fakeJumper) CoastSelected() bool { return j.coast }

type fakeLimits struct{ fwd, rev bool }

func (l *fakeLimits) ForwardOK() bool { return l.fwd }
func (l *fakeLimits) ReverseOK() bool { return l.rev }

// faultRecorder keeps every signal in order.
type faultRecorder struct {
	signals []Fault
}

func (r *faultRecorder) SignalFault(f Fault) { r.signals = append(r.signals, f) }

func (r *faultRecorder) count(f Fault) int {
	n := 0
	for _, s := range r.signals {
		if s == f {
			n++
		}
	}
	return n
}

// fakeSequencer is a result FIFO loaded by the test.
type fakeSequencer struct {
	fifo    []uint16
	acks    int
	initErr error
}

func (s *fakeSequencer) Init() error { return s.initErr }
func (s *fakeSequencer) ClearInterrupt() { s.acks++ }
func (s *fakeSequencer) Empty() bool { return len(s.fifo) == 0 }

func (s *fakeSequencer) Read() uint16 {
	v := s.fifo[0]
	s.fifo = s.fifo[1:]
	return v
}

func (s *fakeSequencer) push(current, vbus, pos, temp uint16) {
	s.fifo = append(s.fifo, current, vbus, pos, temp)
}

type countingTicker struct{ ticks int }

func (c *countingTicker) Tick() { c.ticks++ }

type fakeQEI struct {
	count int32
	dir   int32
}

func (q *fakeQEI) Init() error { return nil }
func (q *fakeQEI) Count() int32 { return q.count }
func (q *fakeQEI) SetCount(n int32) { q.count = n }
func (q *fakeQEI) Direction() int32 { return q.dir }

type fakeEdgeTimer struct{ now uint32 }

func (e *fakeEdgeTimer) Value() uint32 { return e.now }

type fakeWatchdog struct {
	period  uint32
	stall   bool
	reloads int
	acks    int
}

func (w *fakeWatchdog) Configure(periodTicks uint32, stallOnDebug bool) error {
	w.period = periodTicks
	w.stall = stallOnDebug
	return nil
}

func (w *fakeWatchdog) Reload() { w.reloads++ }
func (w *fakeWatchdog) ClearInterrupt() { w.acks++ }

type fakeLED struct{ red, green bool }

func (l *fakeLED) Set(red, green bool) { l.red, l.green = red, green }

type fakeFan struct {
	on   bool
	sets int
}

func (f *fakeFan) Set(on bool) { f.on = on; f.sets++ }

type fakeLimitInputs struct{ fwd, rev bool }

func (l *fakeLimitInputs) ForwardClear() bool { return l.fwd }
func (l *fakeLimitInputs) ReverseClear() bool { return l.rev }

type fakeProber struct {
	fakeLimitInputs
	autoRamp bool
}

func (p *fakeProber) ProbeAutoRamp() bool { return p.autoRamp }
