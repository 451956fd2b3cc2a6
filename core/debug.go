package core

import (
	"strconv"
	"sync/atomic"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event type codes
const (
	EvtRxError     = 1 // UART latched framing/parity/overrun bits
	EvtRxOverflow  = 2 // receive ring full, byte dropped
	EvtConsoleRun  = 3 // console loop entered
	EvtConsoleStop = 4 // console loop left
	EvtFontUpload  = 5 // font upload finished
	EvtFontDump    = 6 // font download finished
	EvtSettings    = 7 // settings reset to defaults
	EvtReboot      = 8 // watchdog reset armed
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

// Event is one diagnostic record. Fields are atomics because events are
// recorded from interrupt context as well as from the foreground loop.
type Event struct {
	Type   atomic.Uint32
	Seq    atomic.Uint32
	Value1 atomic.Uint32
	Value2 atomic.Uint32
}

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	debugEnabled atomic.Bool

	eventRing [EventRingSize]Event
	eventSeq  atomic.Uint32 // sequence of the last recorded event
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled.Load() {
		debugPrintln(msg)
	}
}

// RecordEvent appends an event to the ring, overwriting the oldest entry.
// Never blocks; safe from interrupt context.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	seq := eventSeq.Add(1)
	evt := &eventRing[(seq-1)%EventRingSize]
	evt.Seq.Store(0)
	evt.Type.Store(uint32(eventType))
	evt.Value1.Store(value1)
	evt.Value2.Store(value2)
	evt.Seq.Store(seq)
}

// EventCount returns how many events have been recorded of the given type
// among those still held in the ring.
func EventCount(eventType uint8) int {
	n := 0
	for i := range eventRing {
		evt := &eventRing[i]
		if evt.Seq.Load() != 0 && evt.Type.Load() == uint32(eventType) {
			n++
		}
	}
	return n
}

// DumpEvents outputs the event ring, oldest first, through the debug writer
func DumpEvents() {
	last := eventSeq.Load()
	first := uint32(1)
	if last > EventRingSize {
		first = last - EventRingSize + 1
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for seq := first; seq <= last && seq != 0; seq++ {
		evt := &eventRing[(seq-1)%EventRingSize]
		if evt.Seq.Load() != seq {
			continue // overwritten while dumping
		}
		debugPrintln("[EVENT] #" + strconv.FormatUint(uint64(seq), 10) +
			" " + eventName(uint8(evt.Type.Load())) +
			" v1=" + strconv.FormatUint(uint64(evt.Value1.Load()), 16) +
			" v2=" + strconv.FormatUint(uint64(evt.Value2.Load()), 16))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i].Seq.Store(0)
		eventRing[i].Type.Store(0)
	}
	eventSeq.Store(0)
}

func eventName(t uint8) string {
	switch t {
	case EvtRxError:
		return "RX_ERROR"
	case EvtRxOverflow:
		return "RX_OVERFLOW"
	case EvtConsoleRun:
		return "CONSOLE_RUN"
	case EvtConsoleStop:
		return "CONSOLE_STOP"
	case EvtFontUpload:
		return "FONT_UPLOAD"
	case EvtFontDump:
		return "FONT_DOWNLOAD"
	case EvtSettings:
		return "SETTINGS_RESET"
	case EvtReboot:
		return "REBOOT"
	default:
		return "UNKNOWN"
	}
}
