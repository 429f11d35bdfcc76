package core

import (
	"strings"
	"testing"
)

func TestDumpFaultRing(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	ClearFaultRing()
	defer ClearFaultRing()

	defer SetTime(0)
	SetTime(1234)
	RecordFault(FaultVBus, 1)
	SetTime(5678)
	RecordFault(FaultGateDrive, 3)
	DumpFaultRing()

	want := []string{
		"[FAULT] === Fault Ring Dump ===",
		"[FAULT] vbus clock=1234 count=1",
		"[FAULT] gate clock=5678 count=3",
		"[FAULT] === End Dump ===",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("dump =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestFaultRingWraps(t *testing.T) {
	ClearFaultRing()
	defer ClearFaultRing()

	for i := 0; i < FaultRingSize+3; i++ {
		RecordFault(FaultCurrent, uint8(i))
	}
	events := FaultEvents()
	if len(events) != FaultRingSize {
		t.Fatalf("events = %d, want %d", len(events), FaultRingSize)
	}
	if events[0].Count != 3 || events[FaultRingSize-1].Count != FaultRingSize+2 {
		t.Errorf("oldest count=%d newest count=%d", events[0].Count, events[FaultRingSize-1].Count)
	}
}
