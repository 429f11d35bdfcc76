//go:build rp2040 || rp2350

package main

import "gobdc/core"

// The hardware timer counts microseconds; the core runs on a 16MHz clock.
const clockScale = core.SysClk / 1000000

// hardwareTime returns the microsecond timer scaled to SysClk ticks. The
// product wraps with the 32-bit clock, which the core tolerates.
func hardwareTime() uint32 {
	return timerRAWL.Get() * clockScale
}

// hardwareUptime reads the full 64-bit microsecond counter.
func hardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return uint64(high1)<<32 | uint64(low)
		}
	}
}

// updateSystemTime publishes the scaled timer to the core. Called from the
// main loop.
func updateSystemTime() uint32 {
	now := hardwareTime()
	core.SetTime(now)
	return now
}
