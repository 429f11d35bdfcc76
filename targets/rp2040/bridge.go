//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"sync/atomic"
	"unsafe"

	"gobdc/core"
)

// pwmPeripheral is the part of TinyGo's unexported *pwmGroup the bridge
// uses. Channel muxes the pin onto the slice.
type pwmPeripheral interface {
	Channel(pin machine.Pin) (uint8, error)
	SetInverting(channel uint8, inverting bool)
	SetCounter(ctr uint32)
}

// pwmSlice overlays one slice's register block.
type pwmSlice struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

const (
	pwmCSRPhaseCorrect = 1 << 1
	pwmSliceStride     = 0x14
)

// The slice counts 0..top..0, one carrier period, at the core clock rate.
const pwmTop = core.PWMPeriodTicks/2 - 1

var (
	errBridgePins  = errors.New("bridge: high and low gates must share a slice")
	errBridgeSlice = errors.New("bridge: both legs on one slice")
)

func slice(n uint8) *pwmSlice {
	return (*pwmSlice)(unsafe.Pointer(uintptr(pwmBase + uint32(n)*pwmSliceStride)))
}

func sliceOf(pin machine.Pin) uint8 {
	return uint8(pin>>1) & 7
}

// leg is one half-bridge: channel A drives the high gate and the inverted
// channel B drives the low gate.
type leg struct {
	num  uint8
	regs *pwmSlice
	cc   uint32 // staged CC image
}

func (l *leg) program(p core.LegProgram) {
	a, b := p.PhaseCorrectLevels(pwmTop)
	l.cc = b<<16 | a
}

// RPBridge implements core.BridgePWM on two PWM slices run in phase-correct
// mode and started together. The plus slice's wrap interrupt stands in for
// the ADC trigger.
type RPBridge struct {
	plus, minus leg
	sample      func()

	isrMax atomic.Uint32 // longest carrier interrupt, microseconds
	wraps  atomic.Uint32
}

// NewRPBridge checks the pin assignment. sample runs from the wrap
// interrupt once per carrier period.
func NewRPBridge(plusHigh, plusLow, minusHigh, minusLow machine.Pin, sample func()) (*RPBridge, error) {
	if sliceOf(plusHigh) != sliceOf(plusLow) || sliceOf(minusHigh) != sliceOf(minusLow) ||
		plusHigh&1 != 0 || minusHigh&1 != 0 || plusLow != plusHigh+1 || minusLow != minusHigh+1 {
		return nil, errBridgePins
	}
	if sliceOf(plusHigh) == sliceOf(minusHigh) {
		return nil, errBridgeSlice
	}
	b := &RPBridge{sample: sample}
	b.plus = leg{num: sliceOf(plusHigh), regs: slice(sliceOf(plusHigh))}
	b.minus = leg{num: sliceOf(minusHigh), regs: slice(sliceOf(minusHigh))}
	for _, p := range []machine.Pin{plusHigh, plusLow, minusHigh, minusLow} {
		ch, err := pwmPeripheralFor(sliceOf(p)).Channel(p)
		if err != nil {
			return nil, err
		}
		pwmPeripheralFor(sliceOf(p)).SetInverting(ch, p&1 == 1)
	}
	return b, nil
}

// Init programs both slices parked and starts them in lockstep. The wrap
// interrupt stays off until EnableTrigger.
func (b *RPBridge) Init(periodTicks uint32) error {
	if periodTicks != core.PWMPeriodTicks {
		return errors.New("bridge: unsupported carrier period")
	}
	pwmEnable.ClearBits(1<<b.plus.num | 1<<b.minus.num)
	for _, l := range []*leg{&b.plus, &b.minus} {
		l.program(core.LegProgram{High: core.GateOff, Low: core.GateOff})
		l.regs.CSR.Set(pwmCSRPhaseCorrect)
		l.regs.DIV.Set(pwmDivider)
		l.regs.TOP.Set(pwmTop)
		l.regs.CC.Set(l.cc)
		pwmPeripheralFor(l.num).SetCounter(0)
	}
	pwmEnable.SetBits(1<<b.plus.num | 1<<b.minus.num)
	return nil
}

// EnableTrigger starts the per-period sampling interrupt. Call it once the
// board is initialized.
func (b *RPBridge) EnableTrigger() {
	activeBridge = b
	pwmEnableWrapIRQ(b.plus.num)
}

// Stage loads the shadow image. ADCCompare has no comparator here: the
// group is sampled at the wrap.
func (b *RPBridge) Stage(p core.BridgeProgram) {
	b.plus.program(p.Plus)
	b.minus.program(p.Minus)
}

// SyncUpdate writes both CC registers back to back. The hardware latches
// them at the next wrap, which both slices share.
func (b *RPBridge) SyncUpdate() {
	b.plus.regs.CC.Set(b.plus.cc)
	b.minus.regs.CC.Set(b.minus.cc)
}

func (b *RPBridge) ClearTrigger() {
	pwmIntr.Set(1 << b.plus.num)
}

var activeBridge *RPBridge

func handleWrap(interrupt.Interrupt) {
	if activeBridge != nil {
		activeBridge.onWrap()
	}
}

func (b *RPBridge) onWrap() {
	if pwmIntr.Get()&(1<<b.plus.num) == 0 {
		return
	}
	start := timerRAWL.Get()
	if b.sample == nil {
		b.ClearTrigger()
	} else {
		b.sample()
	}
	if d := timerRAWL.Get() - start; d > b.isrMax.Load() {
		b.isrMax.Store(d)
	}
	b.wraps.Add(1)
}

// TakeISRStats returns the carrier interrupt count and the longest run
// since the last call, then restarts the maximum.
func (b *RPBridge) TakeISRStats() (wraps, maxUS uint32) {
	return b.wraps.Load(), b.isrMax.Swap(0)
}

func pwmPeripheralFor(n uint8) pwmPeripheral {
	switch n % 8 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	}
	return machine.PWM7
}
