package core

import "synthmidi/protocol"

// RxState tags the sysex receiver state
type RxState uint8

const (
	RxIdle         RxState = iota // No frame in progress
	RxAccumulating                // Between F0 and F7
)

// SysexReceiver accumulates sysex bytes into the shared frame buffer and
// dispatches completed frames
type SysexReceiver struct {
	frame    *protocol.FrameBuffer
	state    RxState
	id       [protocol.IDSize]byte
	commands *SysexCommands

	store   PresetStore
	foreign ForeignImporter
	ui      Refresher
}

// NewSysexReceiver creates a receiver working in frame. The bank transfer
// command is registered by default.
func NewSysexReceiver(frame *protocol.FrameBuffer, id [protocol.IDSize]byte, c Collaborators) *SysexReceiver {
	c = c.withDefaults()

	r := &SysexReceiver{
		frame:    frame,
		id:       id,
		commands: NewSysexCommands(),
		store:    c.Store,
		foreign:  c.Foreign,
		ui:       c.UI,
	}
	r.commands.Register(protocol.CommandBankA, "bank_a", r.handleBankA)

	return r
}

// Commands exposes the command registry for additional handlers
func (r *SysexReceiver) Commands() *SysexCommands {
	return r.commands
}

// State returns the current receiver state
func (r *SysexReceiver) State() RxState {
	return r.state
}

// Size returns the number of bytes accumulated since the frame start
func (r *SysexReceiver) Size() int {
	return r.frame.Len()
}

// consumed returns how many bytes of the current message were processed,
// counting the F0
func (r *SysexReceiver) consumed() int {
	if r.state == RxIdle {
		return 0
	}
	return r.frame.Len() + 1
}

// Receive processes one sysex callback. count is the cumulative number of
// bytes of the message delivered so far, including any already seen in
// earlier calls; only the new ones among b0..b2 are consumed, in order.
func (r *SysexReceiver) Receive(count uint16, b0, b1, b2 byte) {
	already := r.consumed()

	// A batch opening with F0 always starts a new message, even when the
	// previous one was cut off without F7
	if b0 == protocol.SysexStart && count <= 3 {
		already = 0
	}

	n := int(count) - already
	if n > 3 {
		n = 3
	}

	batch := [3]byte{b0, b1, b2}
	for i := 0; i < n; i++ {
		r.ReceiveByte(batch[i])
	}
}

// ReceiveByte advances the state machine by one byte
func (r *SysexReceiver) ReceiveByte(b byte) {
	switch b {
	case protocol.SysexStart:
		r.frame.Reset()
		r.state = RxAccumulating

	case protocol.SysexEnd:
		if r.state != RxAccumulating {
			return
		}
		r.complete()
		r.frame.Rewind()
		r.state = RxIdle
		r.ui.RefreshFullState()

	default:
		if r.state != RxAccumulating {
			return
		}
		if r.frame.Full() {
			RecordEvent(EvtSysexOverflow, uint16(r.frame.Cap()), 0)
			DebugPrintln("Warning: sysex buffer overflow")
			r.frame.Rewind()
		}
		r.frame.Append(b)
	}
}

// Reset abandons any frame in progress
func (r *SysexReceiver) Reset() {
	r.frame.Rewind()
	r.state = RxIdle
}

// complete classifies the accumulated frame and hands it on
func (r *SysexReceiver) complete() {
	size := r.frame.Len()
	buf := r.frame.Raw()

	switch {
	case size >= 2 && buf[0] == protocol.ForeignPrefix[0] && buf[1] == protocol.ForeignPrefix[1]:
		r.foreign.ImportForeign(buf[:size])

	case size >= protocol.HeaderSize && buf[0] == r.id[0] && buf[1] == r.id[1] && buf[2] == r.id[2]:
		command := buf[protocol.IDSize]
		switch err := r.commands.Dispatch(command, buf, size); err {
		case nil:
		case ErrUnknownCommand:
			RecordEvent(EvtUnknownCommand, uint16(command), 0)
		default:
			RecordEvent(EvtBadPayload, uint16(command), 0)
		}

	default:
		var v1, v2 uint16
		if size > 0 {
			v1 = uint16(buf[0])
		}
		if size > 1 {
			v2 = uint16(buf[1])
		}
		RecordEvent(EvtUnknownPrefix, v1, v2)
	}
}

// handleBankA decodes a bank transfer: slot byte followed by preset binary
func (r *SysexReceiver) handleBankA(buf []byte, size int) error {
	n := protocol.DecodeInPlace(buf, protocol.HeaderSize, size)
	if n < 1 {
		return ErrEmptyPayload
	}

	payload := buf[protocol.HeaderSize : protocol.HeaderSize+n]
	r.store.Import(payload[0], payload[1:])
	return nil
}
