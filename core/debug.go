package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a dropped message or slot for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Value1 uint16 // Context-dependent value
	Value2 uint16 // Context-dependent value
}

// Event type codes
const (
	EvtSysexOverflow     = 1 // Frame exceeded buffer capacity, v1 = capacity
	EvtUnknownPrefix     = 2 // Completed frame matched no known format, v1/v2 = first bytes
	EvtUnknownCommand    = 3 // Own-format frame with unhandled command, v1 = command
	EvtIndexOutOfRange   = 4 // CC mapped to no parameter, v1 = control
	EvtPresetLoadFailure = 5 // Storage refused a slot, v1 = slot
	EvtInputOverrun      = 6 // Input FIFO full, byte dropped, v1 = byte
	EvtTransmitError     = 7 // Transmitter failed mid-frame, v1 = slot
	EvtBadPayload        = 8 // Frame decoded to nothing usable, v1 = command

	evtTypeCount = 9
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventCounts   [evtTypeCount]uint32
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(s string) {}
	}
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

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the ring buffer and bumps its counter.
// It never blocks and is safe to call from the receive path.
func RecordEvent(eventType uint8, value1, value2 uint16) {
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize

	if int(eventType) < len(eventCounts) {
		eventCounts[eventType]++
	}

	if debugEnabled {
		DebugPrintln("[MIDI] " + eventName(eventType) +
			" v1=" + itoa(int(value1)) +
			" v2=" + itoa(int(value2)))
	}
}

// EventCount returns how many events of a type were recorded since the last clear
func EventCount(eventType uint8) uint32 {
	if int(eventType) >= len(eventCounts) {
		return 0
	}
	return eventCounts[eventType]
}

// RecentEvents returns the ring content from oldest to newest
func RecentEvents() []Event {
	var out []Event
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtSysexOverflow:
		return "SYSEX_OVERFLOW"
	case EvtUnknownPrefix:
		return "UNKNOWN_PREFIX"
	case EvtUnknownCommand:
		return "UNKNOWN_COMMAND"
	case EvtIndexOutOfRange:
		return "CC_OUT_OF_RANGE"
	case EvtPresetLoadFailure:
		return "PRESET_LOAD_FAIL"
	case EvtInputOverrun:
		return "INPUT_OVERRUN"
	case EvtTransmitError:
		return "TX_ERROR"
	case EvtBadPayload:
		return "BAD_PAYLOAD"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring buffer through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[MIDI] === Event Ring Dump ===")
	for _, evt := range RecentEvents() {
		debugPrintln("[MIDI] " + eventName(evt.Type) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[MIDI] === End Dump ===")
}

// ClearEventRing clears the ring and the counters
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	for i := range eventCounts {
		eventCounts[i] = 0
	}
	eventRingHead = 0
}
