package core

import (
	"synthmidi/protocol"

	"gitlab.com/gomidi/midi/v2"
)

// sysexBatch is the number of sysex bytes delivered per callback
const sysexBatch = 3

// StreamParser tokenizes a raw MIDI byte stream into Handler callbacks.
// It keeps running status, ignores realtime bytes wherever they appear,
// swallows system common messages, and hands sysex on in batches of up to
// three bytes with a cumulative count.
type StreamParser struct {
	h Handler

	status byte // Running status, 0 when none
	msg    [3]byte
	have   int // Data bytes collected for the current message
	need   int // Data bytes the current status expects

	inSysex bool
	sysex   [sysexBatch]byte
	pending int
	count   uint16
}

// NewStreamParser creates a parser feeding h
func NewStreamParser(h Handler) *StreamParser {
	return &StreamParser{h: h}
}

// Write feeds data into the parser. It never fails.
func (p *StreamParser) Write(data []byte) (int, error) {
	for _, b := range data {
		p.Feed(b)
	}
	return len(data), nil
}

// Feed processes one byte
func (p *StreamParser) Feed(b byte) {
	switch {
	case b >= protocol.RealtimeMin:
		// Clock, start/stop, active sensing: no effect on parsing state

	case b == protocol.SysexStart:
		p.endSysex()
		p.status = 0
		p.inSysex = true
		p.count = 0
		p.pending = 0
		p.addSysex(b)

	case b == protocol.SysexEnd:
		if p.inSysex {
			p.addSysex(b)
			p.flushSysex()
			p.inSysex = false
		}
		p.status = 0

	case b&protocol.StatusMask != 0:
		p.endSysex()
		p.status = b
		p.have = 0
		p.need = dataLength(b)
		if p.need == 0 {
			p.status = 0
		}

	case p.inSysex:
		p.addSysex(b)

	case p.status == 0:
		// Stray data byte without status

	default:
		p.have++
		p.msg[p.have] = b
		if p.have < p.need {
			return
		}
		p.have = 0
		if p.status >= 0xF0 {
			// System common carries no running status
			p.status = 0
			return
		}
		p.msg[0] = p.status
		p.dispatch(midi.Message(p.msg[:1+p.need]))
	}
}

// Reset drops any partial message and running status
func (p *StreamParser) Reset() {
	p.status = 0
	p.have = 0
	p.need = 0
	p.inSysex = false
	p.pending = 0
	p.count = 0
}

func (p *StreamParser) dispatch(msg midi.Message) {
	var channel, a, b uint8

	switch {
	case msg.GetNoteOn(&channel, &a, &b):
		p.h.NoteOn(channel, a, b)
	case msg.GetNoteOff(&channel, &a, &b):
		p.h.NoteOff(channel, a, b)
	case msg.GetControlChange(&channel, &a, &b):
		p.h.ControlChange(channel, a, b)
	case msg.GetProgramChange(&channel, &a):
		p.h.ProgramChange(channel, a)
	}
}

func (p *StreamParser) addSysex(b byte) {
	p.sysex[p.pending] = b
	p.pending++
	p.count++
	if p.pending == sysexBatch {
		p.flushSysex()
	}
}

func (p *StreamParser) flushSysex() {
	if p.pending == 0 {
		return
	}
	for i := p.pending; i < sysexBatch; i++ {
		p.sysex[i] = 0
	}
	p.h.SysexBytes(p.count, p.sysex[0], p.sysex[1], p.sysex[2])
	p.pending = 0
}

// endSysex delivers whatever is pending when a sysex is cut short
func (p *StreamParser) endSysex() {
	if p.inSysex {
		p.flushSysex()
		p.inSysex = false
	}
}

// dataLength returns the number of data bytes following a status byte
func dataLength(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	}

	switch status {
	case 0xF1, 0xF3: // MTC quarter frame, song select
		return 1
	case 0xF2: // Song position
		return 2
	}
	return 0
}
