package core

import "sync/atomic"

// TimerFreq is the rate of the system clock returned by GetTime. Targets
// whose hardware timer runs slower scale their reading up to it.
const TimerFreq = SysClk

var systemTicks uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time. Targets call it from the main loop
// with their scaled hardware timer; tests call it directly.
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// timeBefore reports whether a is earlier than b, tolerating wraparound
// of the 32-bit clock.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
