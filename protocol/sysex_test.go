package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodedLen(t *testing.T) {
	testCases := []struct {
		n, expected int
	}{
		{0, 0},
		{1, 5},
		{4, 5},
		{5, 10},
		{8, 10},
		{9, 15},
		{100, 125},
	}

	for _, tc := range testCases {
		if got := EncodedLen(tc.n); got != tc.expected {
			t.Errorf("EncodedLen(%d) = %d, expected %d", tc.n, got, tc.expected)
		}
		out := NewScratchOutput(SysexLen(tc.n))
		if err := EncodeSysex(out, DefaultID, CommandBankA, make([]byte, tc.n)); err != nil {
			t.Fatalf("EncodeSysex(%d bytes) failed: %v", tc.n, err)
		}
		if out.Len() != tc.expected+FrameExtra {
			t.Errorf("Encoded %d bytes into %d, expected %d", tc.n, out.Len(), tc.expected+FrameExtra)
		}
	}
}

func TestEncodeFraming(t *testing.T) {
	msg := AppendSysex(nil, DefaultID, CommandBankA, []byte{0x12})

	expected := []byte{SysexStart, 0x00, 0x61, 0x16, CommandBankA, 0x12, 0, 0, 0, 0, SysexEnd}
	if !bytes.Equal(msg, expected) {
		t.Errorf("Frame mismatch:\n got      % X\n expected % X", msg, expected)
	}
}

func TestEncodeParityBits(t *testing.T) {
	// Bit 7 set on inputs 0 and 2
	msg := AppendSysex(nil, DefaultID, CommandBankA, []byte{0x81, 0x02, 0xFF, 0x7F})

	group := msg[1+HeaderSize : 1+HeaderSize+GroupOut]
	if !bytes.Equal(group[:4], []byte{0x01, 0x02, 0x7F, 0x7F}) {
		t.Errorf("Data bytes not masked to 7 bits: % X", group[:4])
	}
	if group[4] != 0x05 {
		t.Errorf("Parity byte = %08b, expected 00000101", group[4])
	}

	for i, b := range msg[1 : len(msg)-1] {
		if b&StatusMask != 0 {
			t.Errorf("Byte %d (0x%02X) is not 7-bit clean", i+1, b)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for n := 1; n <= 64; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*37 + n*11)
		}

		msg := AppendSysex(nil, DefaultID, CommandBankA, data)
		frame, err := ParseFrame(msg, DefaultID)
		if err != nil {
			t.Fatalf("ParseFrame(%d bytes) failed: %v", n, err)
		}

		if frame.Command != CommandBankA {
			t.Errorf("Command = 0x%02X, expected 0x%02X", frame.Command, CommandBankA)
		}

		if len(frame.Payload) != DecodedLen(EncodedLen(n)) {
			t.Errorf("n=%d: decoded %d bytes, expected %d", n, len(frame.Payload), DecodedLen(EncodedLen(n)))
		}

		if !bytes.Equal(frame.Payload[:n], data) {
			t.Errorf("n=%d: round trip mismatch\n got      % X\n expected % X", n, frame.Payload[:n], data)
		}
		for i, b := range frame.Payload[n:] {
			if b != 0 {
				t.Errorf("n=%d: padding byte %d = 0x%02X, expected 0", n, i, b)
			}
		}
	}
}

func TestDecodeGroupCount(t *testing.T) {
	for k := 1; k <= 8; k++ {
		encoded := make([]byte, k*GroupOut)
		if got := len(Decode(encoded)); got != 4*k {
			t.Errorf("Decoding %d groups produced %d bytes, expected %d", k, got, 4*k)
		}
	}
}

func TestDecodeInPlaceSubRange(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x80}
	msg := AppendSysex(nil, DefaultID, CommandBankA, payload)

	// Buffer as the receiver holds it: header without F0, no F7
	buf := append([]byte(nil), msg[1:len(msg)-1]...)
	end := len(buf)

	n := DecodeInPlace(buf, HeaderSize, end)
	if n != 8 {
		t.Fatalf("Expected 8 decoded bytes, got %d", n)
	}

	if !bytes.Equal(buf[:HeaderSize], []byte{0x00, 0x61, 0x16, CommandBankA}) {
		t.Errorf("Header was clobbered: % X", buf[:HeaderSize])
	}
	if !bytes.Equal(buf[HeaderSize:HeaderSize+len(payload)], payload) {
		t.Errorf("Decoded % X, expected % X", buf[HeaderSize:HeaderSize+len(payload)], payload)
	}
}

func TestDecodeInPlaceEmpty(t *testing.T) {
	buf := []byte{1, 2, 3}
	if n := DecodeInPlace(buf, 3, 3); n != 0 {
		t.Errorf("Empty range decoded %d bytes", n)
	}
	if n := DecodeInPlace(buf, 5, 2); n != 0 {
		t.Errorf("Inverted range decoded %d bytes", n)
	}
}

func TestParseFrameErrors(t *testing.T) {
	testCases := []struct {
		name string
		msg  []byte
		err  error
	}{
		{"short", []byte{SysexStart, 0x00, 0x61, SysexEnd}, ErrFrameTooShort},
		{"foreign id", []byte{SysexStart, 0x01, 0x02, 0x03, 0x01, SysexEnd}, ErrForeignID},
		{"status inside", []byte{SysexStart, 0x00, 0x61, 0x16, 0x90, SysexEnd}, ErrNotSysex},
	}

	for _, tc := range testCases {
		if _, err := ParseFrame(tc.msg, DefaultID); err != tc.err {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}

type failingWriter struct {
	left int
}

var errWire = errors.New("wire down")

func (f *failingWriter) WriteByte(b byte) error {
	if f.left == 0 {
		return errWire
	}
	f.left--
	return nil
}

func TestEncodeWriterError(t *testing.T) {
	for _, left := range []int{0, 3, 7, 10} {
		w := &failingWriter{left: left}
		err := EncodeSysex(w, DefaultID, CommandBankA, []byte{1, 2, 3, 4})
		if err != errWire {
			t.Errorf("left=%d: expected writer error, got %v", left, err)
		}
	}
}
