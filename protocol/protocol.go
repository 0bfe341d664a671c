// Package protocol implements the sysex wire format used for preset transfer
package protocol

// Version represents the firmware protocol version
const Version = "0.1.0"

// MIDI framing bytes
const (
	SysexStart = 0xF0
	SysexEnd   = 0xF7

	// Status bytes at or above this value are system realtime and may appear anywhere
	RealtimeMin = 0xF8

	StatusMask  = 0x80
	ChannelMask = 0x0F
	DataMask    = 0x7F
)

// Sysex layout constants
const (
	IDSize     = 3                  // Own manufacturer identifier length
	HeaderSize = IDSize + 1         // Identifier + command byte (without F0)
	GroupIn    = 4                  // Binary bytes per encoded group
	GroupOut   = GroupIn + 1        // Encoded bytes per group (4 data + 1 MSB byte)
	FrameExtra = 1 + HeaderSize + 1 // F0 + header + F7

	// MaxSysexSize is the default capacity of the frame buffer
	MaxSysexSize = 2048
)

// Sysex commands understood by the receiver
const (
	CommandBankA byte = 0x01
)

// DefaultID is the factory sysex identifier of the synthesizer
var DefaultID = [IDSize]byte{0x00, 0x61, 0x16}

// ForeignPrefix marks a legacy program dump from the stock firmware
var ForeignPrefix = [2]byte{0x01, 0x02}

// Frame is the logical view of a completed sysex message
type Frame struct {
	ID      [IDSize]byte
	Command byte
	Payload []byte // Decoded binary payload
}
