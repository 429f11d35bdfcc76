//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on the host, where the
// PWM and edge "interrupts" are plain calls made by tests or the simulator.
type irqState uintptr

// disableInterrupts masks nothing on the host.
func disableInterrupts() irqState {
	return 0
}

// restoreInterrupts is the host counterpart of disableInterrupts.
func restoreInterrupts(irqState) {}
