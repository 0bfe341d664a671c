package protocol

import (
	"errors"
	"io"
)

var (
	ErrNotSysex      = errors.New("not a sysex frame")
	ErrForeignID     = errors.New("sysex identifier does not match")
	ErrFrameTooShort = errors.New("sysex frame too short")
)

// EncodedLen returns the number of 7-bit bytes needed to carry n binary bytes
func EncodedLen(n int) int {
	if n <= 0 {
		return 0
	}
	return ((n-1)/GroupIn + 1) * GroupOut
}

// DecodedLen returns the number of binary bytes produced from n encoded bytes
func DecodedLen(n int) int {
	if n <= 0 {
		return 0
	}
	return ((n-1)/GroupOut + 1) * GroupIn
}

// SysexLen returns the full on-wire size of a frame carrying n binary bytes
func SysexLen(n int) int {
	return EncodedLen(n) + FrameExtra
}

// EncodeSysex writes a complete frame to w:
//
//	F0 id0 id1 id2 command <groups> F7
//
// Each group carries four input bytes with bit 7 cleared, followed by one
// byte whose bits 0-3 hold bit 7 of those inputs, LSB first. A short last
// group reads the missing input bytes as zero.
func EncodeSysex(w io.ByteWriter, id [IDSize]byte, command byte, data []byte) error {
	header := [...]byte{SysexStart, id[0], id[1], id[2], command & DataMask}
	for _, b := range header {
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}

	for i := 0; i < len(data); i += GroupIn {
		var chunk [GroupIn]byte
		copy(chunk[:], data[i:])

		var msb byte
		for j, b := range chunk {
			if err := w.WriteByte(b & DataMask); err != nil {
				return err
			}
			msb |= (b >> 7) << j
		}
		if err := w.WriteByte(msb); err != nil {
			return err
		}
	}

	return w.WriteByte(SysexEnd)
}

// AppendSysex encodes a frame and appends it to dst
func AppendSysex(dst []byte, id [IDSize]byte, command byte, data []byte) []byte {
	out := NewScratchOutput(SysexLen(len(data)))
	// Capacity is exact, WriteByte cannot fail
	_ = EncodeSysex(out, id, command, data)
	return append(dst, out.Result()...)
}

// DecodeInPlace unpacks the encoded groups held in buf[start:end] and
// compacts the binary result into buf starting at start. Every group
// yields four bytes; a trailing partial group is decoded with its missing
// bytes read as zero. It returns the number of binary bytes written.
func DecodeInPlace(buf []byte, start, end int) int {
	if end > len(buf) {
		end = len(buf)
	}
	if start < 0 || start >= end {
		return 0
	}

	groups := (end - start + GroupOut - 1) / GroupOut
	out := start

	for i := 0; i < groups; i++ {
		src := start + i*GroupOut

		var g [GroupOut]byte
		copy(g[:], buf[src:end])

		msb := g[GroupIn]
		for j := 0; j < GroupIn; j++ {
			if out >= len(buf) {
				return out - start
			}
			buf[out] = (g[j] & DataMask) | ((msb>>j)&1)<<7
			out++
		}
	}

	return out - start
}

// Decode unpacks an encoded payload into a new slice
func Decode(encoded []byte) []byte {
	buf := make([]byte, len(encoded)+GroupIn)
	copy(buf, encoded)
	n := DecodeInPlace(buf, 0, len(encoded))
	return buf[:n]
}

// ParseFrame splits a complete own-format sysex message into its parts and
// decodes the payload. The surrounding F0/F7 bytes are optional.
func ParseFrame(msg []byte, id [IDSize]byte) (*Frame, error) {
	if len(msg) > 0 && msg[0] == SysexStart {
		msg = msg[1:]
	}
	if len(msg) > 0 && msg[len(msg)-1] == SysexEnd {
		msg = msg[:len(msg)-1]
	}
	if len(msg) < HeaderSize {
		return nil, ErrFrameTooShort
	}
	for _, b := range msg {
		if b&StatusMask != 0 {
			return nil, ErrNotSysex
		}
	}
	if msg[0] != id[0] || msg[1] != id[1] || msg[2] != id[2] {
		return nil, ErrForeignID
	}

	return &Frame{
		ID:      id,
		Command: msg[IDSize],
		Payload: Decode(msg[HeaderSize:]),
	}, nil
}
