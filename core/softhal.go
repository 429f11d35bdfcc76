package core

import "sync/atomic"

// Software stand-ins for peripherals a target lacks. Each implements the
// matching HAL interface around inputs the target feeds from its own
// interrupts or main loop.

// quadStep maps (previous AB << 2 | current AB) to a count step. Only
// transitions of phase A count, giving two counts per line. Transitions of
// B alone and invalid double transitions step 0.
var quadStep = [16]int8{
	0b00_10: +1, 0b10_00: -1,
	0b01_11: -1, 0b11_01: +1,
}

// quadDir maps the same index to a direction, including B transitions.
var quadDir = [16]int8{
	0b00_10: +1, 0b10_11: +1, 0b11_01: +1, 0b01_00: +1,
	0b00_01: -1, 0b01_11: -1, 0b11_10: -1, 0b10_00: -1,
}

// SoftQuadrature decodes phase A/B levels sampled in pin-change interrupts.
type SoftQuadrature struct {
	count atomic.Int32
	dir   atomic.Int32
	state uint8
}

func (q *SoftQuadrature) Init() error {
	q.dir.Store(1)
	return nil
}

func (q *SoftQuadrature) Count() int32 { return q.count.Load() }
func (q *SoftQuadrature) SetCount(n int32) { q.count.Store(n) }
func (q *SoftQuadrature) Direction() int32 { return q.dir.Load() }

// Update takes the current pin levels and reports whether phase A moved.
func (q *SoftQuadrature) Update(a, b bool) bool {
	cur := uint8(0)
	if a {
		cur |= 2
	}
	if b {
		cur |= 1
	}
	idx := q.state<<2 | cur
	q.state = cur
	if d := quadDir[idx]; d != 0 {
		q.dir.Store(int32(d))
	}
	step := quadStep[idx]
	if step == 0 {
		return false
	}
	q.count.Add(int32(step))
	return true
}

// SoftEdgeTimer presents a free-running up clock in SysClk ticks as the
// 24-bit down counter the encoder expects.
type SoftEdgeTimer struct {
	Now func() uint32
}

func (t SoftEdgeTimer) Value() uint32 {
	return (EdgeTimerRange - 1) - t.Now()&(EdgeTimerRange-1)
}

// SampleFIFO is a result FIFO filled by a target that converts channels
// itself. It holds two conversion groups.
type SampleFIFO struct {
	buf        [2 * adcGroupSize]uint16
	head, tail uint8
	pending    atomic.Bool
}

func (f *SampleFIFO) Init() error {
	f.head, f.tail = 0, 0
	return nil
}

// PushGroup stores one conversion group in channel order and raises the
// sequence-complete flag. A full FIFO drops the oldest results.
func (f *SampleFIFO) PushGroup(current, vbus, position, temperature uint16) {
	for _, v := range [adcGroupSize]uint16{current, vbus, position, temperature} {
		if f.head-f.tail == uint8(len(f.buf)) {
			f.tail++
		}
		f.buf[f.head%uint8(len(f.buf))] = v & ADCMax
		f.head++
	}
	f.pending.Store(true)
}

// Pending reports whether a group arrived since the last ClearInterrupt.
func (f *SampleFIFO) Pending() bool { return f.pending.Load() }
func (f *SampleFIFO) ClearInterrupt() { f.pending.Store(false) }
func (f *SampleFIFO) Empty() bool { return f.head == f.tail }

func (f *SampleFIFO) Read() uint16 {
	v := f.buf[f.tail%uint8(len(f.buf))]
	f.tail++
	return v
}

// SoftWatchdog is a countdown polled from the main loop. Like the hardware
// timer it fires once per period while nobody reloads it.
type SoftWatchdog struct {
	Now func() uint32

	period   uint32
	deadline atomic.Uint32
	running  atomic.Bool
}

func (w *SoftWatchdog) Configure(periodTicks uint32, stallOnDebug bool) error {
	w.period = periodTicks
	w.deadline.Store(w.Now() + periodTicks)
	w.running.Store(true)
	return nil
}

func (w *SoftWatchdog) Reload() {
	w.deadline.Store(w.Now() + w.period)
}

func (w *SoftWatchdog) ClearInterrupt() {}

// Expired reports an expiry at now and starts the next period.
func (w *SoftWatchdog) Expired(now uint32) bool {
	if !w.running.Load() {
		return false
	}
	d := w.deadline.Load()
	if timeBefore(now, d) {
		return false
	}
	w.deadline.Store(d + w.period)
	return true
}
