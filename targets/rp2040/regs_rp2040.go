//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

const (
	chipName = "rp2040"

	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28

	pwmBase    = 0x40050000
	pwmDivider = 7<<4 | 13 // 125MHz / 7.8125
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

	pwmEnable = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xa0)))
	pwmIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xa4)))
	pwmInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xa8)))
)

func pwmEnableWrapIRQ(n uint8) {
	pwmIntr.Set(1 << n)
	pwmInte.SetBits(1 << n)
	irq := interrupt.New(rp.IRQ_PWM_IRQ_WRAP, handleWrap)
	irq.SetPriority(0x00)
	irq.Enable()
}
