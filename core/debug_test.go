package core

import (
	"strings"
	"testing"
)

func TestRecordEvent(t *testing.T) {
	ClearEventRing()

	RecordEvent(EvtUnknownCommand, 0x42, 0)
	RecordEvent(EvtPresetLoadFailure, 7, 0)

	events := RecentEvents()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EvtUnknownCommand || events[0].Value1 != 0x42 {
		t.Errorf("Oldest event = %+v", events[0])
	}
	if events[1].Type != EvtPresetLoadFailure || events[1].Value1 != 7 {
		t.Errorf("Newest event = %+v", events[1])
	}
	if EventCount(EvtUnknownCommand) != 1 {
		t.Errorf("Count = %d, expected 1", EventCount(EvtUnknownCommand))
	}
	if EventCount(200) != 0 {
		t.Error("Out of range event type has a count")
	}
}

func TestEventRingWraps(t *testing.T) {
	ClearEventRing()

	for i := 0; i < EventRingSize+5; i++ {
		RecordEvent(EvtInputOverrun, uint16(i), 0)
	}

	events := RecentEvents()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Value1 != 5 {
		t.Errorf("Oldest kept event has value %d, expected 5", events[0].Value1)
	}
	if EventCount(EvtInputOverrun) != EventRingSize+5 {
		t.Errorf("Counter = %d, expected %d", EventCount(EvtInputOverrun), EventRingSize+5)
	}
}

func TestDebugWriter(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(nil)
	defer SetDebugEnabled(false)

	DebugPrintln("hidden")
	if len(lines) != 0 {
		t.Error("Output written while debug disabled")
	}

	SetDebugEnabled(true)
	ClearEventRing()
	RecordEvent(EvtSysexOverflow, 2048, 0)

	if len(lines) != 1 || !strings.Contains(lines[0], "SYSEX_OVERFLOW v1=2048") {
		t.Errorf("Unexpected debug output %q", lines)
	}

	lines = nil
	DumpEventRing()
	if len(lines) != 3 {
		t.Errorf("Dump wrote %d lines, expected 3", len(lines))
	}
}
