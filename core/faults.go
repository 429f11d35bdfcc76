package core

// Fault is a bitmask of fault kinds. The bit values match the CAN protocol
// status encoding so they can be reported unchanged.
type Fault uint32

const (
	FaultCurrent     Fault = 0x01
	FaultTemperature Fault = 0x02
	FaultVBus        Fault = 0x04
	FaultGateDrive   Fault = 0x08
	FaultComm        Fault = 0x10

	faultKinds = 5
)

func (f Fault) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	for i := 0; i < faultKinds; i++ {
		bit := Fault(1) << i
		if f&bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += faultNames[i]
	}
	return s
}

var faultNames = [faultKinds]string{"current", "temperature", "vbus", "gate", "comm"}

// FaultSink receives fault signals from the protection code. SignalFault may
// be called from interrupt context, every sample the condition holds.
type FaultSink interface {
	SignalFault(f Fault)
}

// FaultCounts is the number of times each kind was newly latched,
// saturating at 255.
type FaultCounts struct {
	Current     uint8
	Temperature uint8
	VBus        uint8
	GateDrive   uint8
	Comm        uint8
}

// FaultLog latches faults signaled by the protection code.
//
// Repeated signals of an already latched fault only re-raise the pending
// flag, which restarts the supervisor's hold-off; the first one alone counts
// and records an event. A COMM fault is never latched active; it only
// reaches the sticky flags and its counter, so a lost link does not keep the
// annunciator in its fault display.
//
// The log never clears active faults itself; the supervisor does that after
// its hold-off time.
type FaultLog struct {
	active  Bitset[Fault]
	sticky  Bitset[Fault]
	pending Bitset[Fault]
	counts  [faultKinds]uint8
}

var _ FaultSink = (*FaultLog)(nil)

// SignalFault records fault f.
func (l *FaultLog) SignalFault(f Fault) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	latched := l.active.Load()&f&^FaultComm != 0
	l.sticky.Set(f)
	if f != FaultComm {
		l.active.Set(f &^ FaultComm)
		l.pending.Set(f &^ FaultComm)
	}

	if latched {
		return
	}
	for i := 0; i < faultKinds; i++ {
		if f == Fault(1)<<i {
			if l.counts[i] < 255 {
				l.counts[i]++
			}
			RecordFault(f, l.counts[i])
			break
		}
	}
}

// Active returns the latched faults.
func (l *FaultLog) Active() Fault {
	return l.active.Load()
}

// ClearActive drops every latched fault.
func (l *FaultLog) ClearActive() {
	l.active.Swap(0)
}

// TakePending returns the faults signaled since the last call and clears
// them. The supervisor polls this to restart its hold-off timer.
func (l *FaultLog) TakePending() Fault {
	return l.pending.Swap(0)
}

// Sticky returns every fault seen since the last clearing read.
func (l *FaultLog) Sticky(clear bool) Fault {
	if clear {
		return l.sticky.Swap(0)
	}
	return l.sticky.Load()
}

// Counts returns the per-kind counters, optionally zeroing them.
func (l *FaultLog) Counts(clear bool) FaultCounts {
	state := disableInterrupts()
	c := FaultCounts{
		Current:     l.counts[0],
		Temperature: l.counts[1],
		VBus:        l.counts[2],
		GateDrive:   l.counts[3],
		Comm:        l.counts[4],
	}
	if clear {
		l.counts = [faultKinds]uint8{}
	}
	restoreInterrupts(state)
	return c
}
