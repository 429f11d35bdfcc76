package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// FaultEvent captures a newly latched fault for post-mortem analysis
type FaultEvent struct {
	Fault Fault
	Clock uint32 // system clock when the fault latched
	Count uint8  // per-kind count after this event
}

const (
	FaultRingSize = 16 // keep the last 16 fault events
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active. Off by default;
	// the carrier ISR must never wait on a UART.
	debugEnabled bool

	faultRing     [FaultRingSize]FaultEvent
	faultRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Call it from task context only.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordFault appends an event to the fault ring. It is safe to call from
// the carrier ISR: it never allocates or blocks.
func RecordFault(f Fault, count uint8) {
	state := disableInterrupts()
	idx := faultRingHead
	faultRing[idx] = FaultEvent{Fault: f, Clock: GetTime(), Count: count}
	faultRingHead = (idx + 1) % FaultRingSize
	restoreInterrupts(state)
}

// FaultEvents returns the recorded events, oldest first.
func FaultEvents() []FaultEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]FaultEvent, 0, FaultRingSize)
	for i := uint8(0); i < FaultRingSize; i++ {
		evt := faultRing[(faultRingHead+i)%FaultRingSize]
		if evt.Fault == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// DumpFaultRing writes the fault ring through the debug writer
func DumpFaultRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[FAULT] === Fault Ring Dump ===")
	for _, evt := range FaultEvents() {
		debugPrintln("[FAULT] " + evt.Fault.String() +
			" clock=" + Utoa(evt.Clock) +
			" count=" + Utoa(uint32(evt.Count)))
	}
	debugPrintln("[FAULT] === End Dump ===")
}

// ClearFaultRing clears the fault buffer
func ClearFaultRing() {
	state := disableInterrupts()
	for i := range faultRing {
		faultRing[i] = FaultEvent{}
	}
	faultRingHead = 0
	restoreInterrupts(state)
}
