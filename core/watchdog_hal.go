package core

// WatchdogTimer is a countdown timer that interrupts when it reaches zero.
// It must not reset the chip: expiry means the command link went quiet, not
// that the firmware hung.
type WatchdogTimer interface {
	// Configure loads the period in SysClk cycles and starts counting.
	// With stallOnDebug the counter freezes while a debugger halts the core.
	Configure(periodTicks uint32, stallOnDebug bool) error

	// Reload restarts the countdown from the configured period.
	Reload()

	// ClearInterrupt acknowledges an expiry.
	ClearInterrupt()
}

var watchdogDriver WatchdogTimer

// SetWatchdogDriver is called by target-specific code to register its driver.
func SetWatchdogDriver(d WatchdogTimer) {
	watchdogDriver = d
}

// MustWatchdog returns the configured driver or panics if missing.
func MustWatchdog() WatchdogTimer {
	if watchdogDriver == nil {
		panic("watchdog timer not configured")
	}
	return watchdogDriver
}
