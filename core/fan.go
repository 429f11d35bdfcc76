package core

import "sync/atomic"

// FanState is the cooling fan state.
type FanState uint32

const (
	FanOff FanState = iota
	FanOn
)

func (s FanState) String() string {
	if s == FanOn {
		return "on"
	}
	return "off"
}

// fanMachine is the fan state plus its cooldown, in slow ticks.
type fanMachine struct {
	state    FanState
	cooldown uint32
}

// nextFan is the fan transition function. The fan runs while the motor is
// driven and for FanCoolingTime after it stops, and whenever the board is
// hot. A thermal start has no cooldown, so it stops as soon as the board has
// cooled past the hysteresis band.
func nextFan(m fanMachine, voltage int32, temp Fix8) fanMachine {
	switch m.state {
	case FanOn:
		if m.cooldown != 0 {
			m.cooldown--
		}
		if voltage != 0 {
			m.cooldown = FanCoolingTime
		} else if m.cooldown == 0 && temp < FanTemperature-FanHysteresis {
			m.state = FanOff
		}
	default:
		if voltage != 0 {
			m = fanMachine{state: FanOn, cooldown: FanCoolingTime}
		} else if temp > FanTemperature+FanHysteresis {
			m = fanMachine{state: FanOn}
		}
	}
	return m
}

// Fan drives the cooling fan from the commanded voltage and the board
// temperature.
type Fan struct {
	out     FanOutput
	voltage func() int32
	temp    func() Fix8

	m     fanMachine // tick-owned
	state atomic.Uint32
}

// NewFan wires the fan output to its inputs.
func NewFan(out FanOutput, voltage func() int32, temp func() Fix8) *Fan {
	return &Fan{out: out, voltage: voltage, temp: temp}
}

// Init starts the fan for FanTestTime so a dead fan is noticed at power-up.
func (f *Fan) Init() {
	f.apply(fanMachine{state: FanOn, cooldown: FanTestTime})
}

// Tick runs from the slow tick.
func (f *Fan) Tick() {
	f.apply(nextFan(f.m, f.voltage(), f.temp()))
}

// State returns the current fan state.
func (f *Fan) State() FanState {
	return FanState(f.state.Load())
}

func (f *Fan) apply(m fanMachine) {
	if m.state != f.m.state {
		f.out.Set(m.state == FanOn)
	}
	f.m = m
	f.state.Store(uint32(m.state))
}
