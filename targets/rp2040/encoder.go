//go:build rp2040 || rp2350

package main

import (
	"machine"

	"gobdc/core"
)

// encoder decodes the quadrature inputs from pin-change interrupts into a
// core.SoftQuadrature. onEdge runs whenever phase A moved.
type encoder struct {
	a, b   machine.Pin
	q      core.SoftQuadrature
	onEdge func()
}

func newEncoder(a, b machine.Pin) *encoder {
	return &encoder{a: a, b: b}
}

// Init is called by the core through the QuadratureDecoder.
func (e *encoder) Init() error {
	e.a.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	e.b.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := e.q.Init(); err != nil {
		return err
	}
	e.q.Update(e.a.Get(), e.b.Get())
	e.q.SetCount(0)

	if err := e.a.SetInterrupt(machine.PinToggle, e.edge); err != nil {
		return err
	}
	return e.b.SetInterrupt(machine.PinToggle, e.edge)
}

func (e *encoder) edge(machine.Pin) {
	if e.q.Update(e.a.Get(), e.b.Get()) && e.onEdge != nil {
		e.onEdge()
	}
}

func (e *encoder) Count() int32 { return e.q.Count() }
func (e *encoder) SetCount(n int32) { e.q.SetCount(n) }
func (e *encoder) Direction() int32 { return e.q.Direction() }
