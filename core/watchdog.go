package core

import "sync/atomic"

// Watchdog declares the command link lost when no valid traffic arrives for
// WatchdogPeriod.
type Watchdog struct {
	timer  WatchdogTimer
	link   LinkSink
	faults FaultSink

	expired atomic.Bool // no valid command since the last expiry
}

// NewWatchdog wires the timer to the link and fault aggregators.
func NewWatchdog(timer WatchdogTimer, link LinkSink, faults FaultSink) *Watchdog {
	return &Watchdog{timer: timer, link: link, faults: faults}
}

// Init starts the timer. It keeps counting while the link is down, firing
// once per period. The link starts out lost, so expiries before the first
// valid command do not count as COMM faults.
func (w *Watchdog) Init() error {
	w.expired.Store(true)
	return w.timer.Configure(WatchdogPeriod, true)
}

// Pet is called by an interface driver for every valid command received on
// link t.
func (w *Watchdog) Pet(t LinkType) {
	w.timer.Reload()
	w.expired.Store(false)
	w.link.LinkGood(t)
}

// OnExpire is the timer interrupt handler. A COMM fault is signaled only
// for the expiry that loses a live link.
func (w *Watchdog) OnExpire() {
	w.timer.ClearInterrupt()
	w.link.LinkLost(LinkNone)
	if !w.expired.Swap(true) {
		w.faults.SignalFault(FaultComm)
	}
}
