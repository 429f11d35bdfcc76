//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"gobdc/targets/pio"
)

// gateDriver reads the gate driver's active-low fault line and times its
// reset pulse in PIO.
type gateDriver struct {
	fault machine.Pin
	reset *pio.GateReset
}

func newGateDriver(fault, reset machine.Pin) (*gateDriver, error) {
	r, err := pio.NewGateReset(reset)
	if err != nil {
		return nil, err
	}
	return &gateDriver{fault: fault, reset: r}, nil
}

func (g *gateDriver) Init() error {
	g.fault.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return g.reset.Init()
}

func (g *gateDriver) Faulted() bool { return !g.fault.Get() }
func (g *gateDriver) PulseReset() { g.reset.Pulse() }

// jumper is the brake/coast input. Fitting the jumper pulls it high.
type jumper struct{ pin machine.Pin }

func newJumper(pin machine.Pin) jumper {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return jumper{pin: pin}
}

func (j jumper) CoastSelected() bool { return j.pin.Get() }

// limits are the normally-closed limit switches to ground. A closed
// switch reads low and allows motion.
type limits struct {
	fwd, rev machine.Pin
}

func newLimits(fwd, rev machine.Pin) *limits {
	l := &limits{fwd: fwd, rev: rev}
	l.inputs()
	return l
}

func (l *limits) inputs() {
	l.fwd.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	l.rev.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (l *limits) ForwardClear() bool { return !l.fwd.Get() }
func (l *limits) ReverseClear() bool { return !l.rev.Get() }

// ProbeAutoRamp drives the forward input both ways and checks whether the
// reverse input follows. Only a jumper between the two can make it.
func (l *limits) ProbeAutoRamp() bool {
	defer l.inputs()
	l.fwd.Configure(machine.PinConfig{Mode: machine.PinOutput})
	follows := true
	for _, level := range []bool{false, true, false} {
		l.fwd.Set(level)
		time.Sleep(10 * time.Microsecond)
		if l.rev.Get() != level {
			follows = false
		}
	}
	return follows
}

type fanPin struct{ pin machine.Pin }

func newFan(pin machine.Pin) fanPin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return fanPin{pin: pin}
}

func (f fanPin) Set(on bool) { f.pin.Set(on) }

// bicolorLED drives the red and green diodes from two outputs.
type bicolorLED struct {
	red, green machine.Pin
}

func newBicolorLED(red, green machine.Pin) bicolorLED {
	red.Configure(machine.PinConfig{Mode: machine.PinOutput})
	green.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return bicolorLED{red: red, green: green}
}

func (l bicolorLED) Set(red, green bool) {
	l.red.Set(red)
	l.green.Set(green)
}
