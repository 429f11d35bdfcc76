//go:build rp2350

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// TIMER0 and the PWM block moved on the RP2350.
const (
	chipName = "rp2350"

	timerBase     = 0x400b0000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28

	pwmBase    = 0x400a8000
	pwmDivider = 9<<4 | 6 // 150MHz / 9.375
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

	pwmEnable = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xf0)))
	pwmIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xf4)))
	pwmInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(pwmBase + 0xf8)))
)

func pwmEnableWrapIRQ(n uint8) {
	pwmIntr.Set(1 << n)
	pwmInte.SetBits(1 << n)
	irq := interrupt.New(rp.IRQ_PWM_IRQ_WRAP_0, handleWrap)
	irq.SetPriority(0x00)
	irq.Enable()
}
