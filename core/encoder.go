// Quadrature encoder feedback
package core

import (
	"math"
	"sync/atomic"
)

type encoderFlag uint32

const (
	encoderValid    encoderFlag = 1 << iota // clocks spans two real edges
	encoderEdge                             // edge seen since the last tick
	encoderPrevious                         // at least one edge since going stale
)

// Encoder derives position and speed from the quadrature decoder and the
// time between phase A edges.
type Encoder struct {
	qei   QuadratureDecoder
	timer EdgeTimer

	lines atomic.Uint32
	flags Bitset[encoderFlag]
	edge  pairCell // timestamp of the last edge, clocks since the one before

	prev  uint32 // ISR-owned
	stale uint32 // tick-owned countdown
}

// NewEncoder wires the decoder and the edge timestamp timer.
func NewEncoder(qei QuadratureDecoder, timer EdgeTimer) *Encoder {
	return &Encoder{qei: qei, timer: timer}
}

// Init starts the decoder at position zero.
func (e *Encoder) Init() error {
	if err := e.qei.Init(); err != nil {
		return err
	}
	e.qei.SetCount(0)
	return nil
}

// SetLines sets the encoder resolution in lines per revolution.
func (e *Encoder) SetLines(n uint32) {
	e.lines.Store(n)
}

// Lines returns the encoder resolution.
func (e *Encoder) Lines() uint32 {
	return e.lines.Load()
}

// OnEdge is the phase A edge interrupt handler.
func (e *Encoder) OnEdge() {
	now := e.timer.Value()
	var clocks uint32
	if e.prev > now {
		clocks = e.prev - now
	} else {
		clocks = (EdgeTimerRange - now) + e.prev
	}
	e.prev = now
	e.edge.publish(now, clocks)

	e.flags.Set(encoderEdge)
	if e.flags.Has(encoderPrevious) {
		e.flags.Set(encoderValid)
	}
	e.flags.Set(encoderPrevious)
}

// Tick runs from the slow tick. Without an edge for EncoderWaitTime ticks the
// motor is considered stopped and the next edge interval is discarded.
func (e *Encoder) Tick() {
	if e.flags.TestAndClear(encoderEdge) {
		e.stale = EncoderWaitTime
		return
	}
	if e.stale == 0 {
		return
	}
	e.stale--
	if e.stale == 0 {
		e.flags.Clear(encoderPrevious | encoderValid)
	}
}

// SetPosition moves the counter to p, in 16.16 revolutions.
func (e *Encoder) SetPosition(p Fix16) {
	e.qei.SetCount(Mul16x16(int32(p), int32(e.lines.Load()*2)))
}

// Position returns the shaft position in 16.16 revolutions.
func (e *Encoder) Position() Fix16 {
	return Fix16(Div16x16(e.qei.Count(), int32(e.lines.Load()*2)))
}

// EdgeInterval returns the clocks between the last two edges, or 0 while the
// encoder is stale.
func (e *Encoder) EdgeInterval() uint32 {
	if !e.flags.Has(encoderValid) {
		return 0
	}
	_, clocks := e.edge.load()
	return clocks
}

// Velocity returns the shaft speed in 16.16 RPM. Unless signed is set the
// result is a magnitude.
func (e *Encoder) Velocity(signed bool) Fix16 {
	if !e.flags.Has(encoderValid) {
		return 0
	}
	dir := int32(1)
	if signed {
		dir = e.qei.Direction()
	}
	_, clocks := e.edge.load()
	den := uint64(clocks) * uint64(e.lines.Load())
	if den > math.MaxInt32 {
		den = math.MaxInt32
	}
	return Fix16(Div16x16(dir*SysClk*60, int32(den)))
}
