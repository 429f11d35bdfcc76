package core

import "testing"

func TestSoftQuadrature(t *testing.T) {
	type ab struct{ a, b bool }
	forward := []ab{{true, false}, {true, true}, {false, true}, {false, false}}

	var q SoftQuadrature
	q.Init()
	var moved int
	for i := 0; i < 3; i++ {
		for _, s := range forward {
			if q.Update(s.a, s.b) {
				moved++
			}
		}
	}
	if q.Count() != 6 || moved != 6 {
		t.Fatalf("three forward lines: count=%d A-edges=%d, want 6 6", q.Count(), moved)
	}
	if q.Direction() != 1 {
		t.Errorf("direction = %d, want forward", q.Direction())
	}

	for i := len(forward) - 2; i >= 0; i-- {
		q.Update(forward[i].a, forward[i].b)
	}
	q.Update(false, false)
	if q.Count() != 4 {
		t.Errorf("after one line back count = %d, want 4", q.Count())
	}
	if q.Direction() != -1 {
		t.Errorf("direction = %d, want reverse", q.Direction())
	}

	if q.Update(true, true) {
		t.Error("double transition counted")
	}
	q.SetCount(-10)
	if q.Count() != -10 {
		t.Errorf("SetCount: %d", q.Count())
	}
}

func TestSoftEdgeTimer(t *testing.T) {
	now := uint32(0)
	timer := SoftEdgeTimer{Now: func() uint32 { return now }}
	if v := timer.Value(); v != EdgeTimerRange-1 {
		t.Errorf("Value at 0 = %d", v)
	}
	now = 1000
	if v := timer.Value(); v != EdgeTimerRange-1001 {
		t.Errorf("Value at 1000 = %d", v)
	}
	now = EdgeTimerRange + 5
	if v := timer.Value(); v != EdgeTimerRange-6 {
		t.Errorf("Value after wrap = %d", v)
	}
}

func TestSampleFIFO(t *testing.T) {
	var f SampleFIFO
	f.Init()
	if !f.Empty() || f.Pending() {
		t.Fatal("new FIFO not empty")
	}
	f.PushGroup(1, 2, 3, 0xffff)
	if !f.Pending() {
		t.Error("group did not raise pending")
	}
	f.ClearInterrupt()
	if f.Pending() {
		t.Error("ClearInterrupt kept pending")
	}
	for _, want := range []uint16{1, 2, 3, ADCMax} {
		if got := f.Read(); got != want {
			t.Errorf("Read = %d, want %d", got, want)
		}
	}
	if !f.Empty() {
		t.Error("FIFO not drained")
	}

	f.PushGroup(10, 11, 12, 13)
	f.PushGroup(20, 21, 22, 23)
	f.PushGroup(30, 31, 32, 33)
	if got := f.Read(); got != 20 {
		t.Errorf("overflow kept the oldest group: %d", got)
	}
}

func TestSoftWatchdog(t *testing.T) {
	now := uint32(0)
	w := &SoftWatchdog{Now: func() uint32 { return now }}
	if w.Expired(1 << 30) {
		t.Fatal("expired before Configure")
	}
	w.Configure(100, true)

	now = 99
	if w.Expired(now) {
		t.Error("expired early")
	}
	w.Reload()
	now = 150
	if w.Expired(now) {
		t.Error("Reload did not restart the period")
	}
	now = 199
	if !w.Expired(now) {
		t.Fatal("no expiry at the deadline")
	}
	if w.Expired(now) {
		t.Error("fired twice in one period")
	}
	now = 299
	if !w.Expired(now) {
		t.Error("no expiry one period later")
	}
}

func TestSoftHALWithBoard(t *testing.T) {
	now := uint32(0)
	clock := func() uint32 { return now }
	fifo := &SampleFIFO{}
	qei := &SoftQuadrature{}
	wd := &SoftWatchdog{Now: clock}
	b := NewBoard(Drivers{
		Bridge:    &fakePWM{},
		Gate:      &fakeGate{},
		Jumper:    &fakeJumper{},
		Limits:    &fakeLimitInputs{fwd: true, rev: true},
		ADC:       fifo,
		QEI:       qei,
		EdgeTimer: SoftEdgeTimer{Now: clock},
		Watchdog:  wd,
		LED:       &fakeLED{},
		Fan:       &fakeFan{},
	})
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	b.Pet(LinkUART)
	fifo.PushGroup(quietCurrent, quietVBus, quietPos, quietTemp)
	b.OnConversionComplete()
	if fifo.Pending() || !fifo.Empty() {
		t.Error("conversion not consumed")
	}

	now = WatchdogPeriod
	if !wd.Expired(now) {
		t.Fatal("watchdog did not expire")
	}
	b.OnWatchdogExpire()
	if b.Link().Active() {
		t.Error("link still active")
	}
}
