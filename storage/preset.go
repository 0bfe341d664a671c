package storage

import (
	"encoding/binary"
	"errors"

	"synthmidi/core"
)

// FormatVersion is written as the first byte of every stored preset
const FormatVersion = 1

// Header: version, continuous count, stepped count
const headerSize = 3

var (
	ErrShortPreset   = errors.New("preset data truncated")
	ErrPresetVersion = errors.New("unsupported preset format version")
)

// PresetSize returns the encoded size of p
func PresetSize(p *core.Preset) int {
	return headerSize + 2*len(p.ContinuousParameters) + len(p.SteppedParameters)
}

// AppendPreset appends the binary form of p to dst.
// Continuous parameters are big-endian uint16.
func AppendPreset(dst []byte, p *core.Preset) []byte {
	dst = append(dst, FormatVersion, byte(len(p.ContinuousParameters)), byte(len(p.SteppedParameters)))
	for _, v := range p.ContinuousParameters {
		dst = binary.BigEndian.AppendUint16(dst, v)
	}
	return append(dst, p.SteppedParameters...)
}

// MarshalPreset returns the binary form of p
func MarshalPreset(p *core.Preset) []byte {
	return AppendPreset(make([]byte, 0, PresetSize(p)), p)
}

// StoredSize returns the length of the preset at the start of data, or 0
// when data does not start with a complete preset
func StoredSize(data []byte) int {
	if len(data) < headerSize || data[0] != FormatVersion {
		return 0
	}
	size := headerSize + 2*int(data[1]) + int(data[2])
	if len(data) < size {
		return 0
	}
	return size
}

// UnmarshalPreset loads data into p. Parameters beyond what p holds are
// skipped, missing ones are left untouched, and trailing bytes (such as
// sysex group padding) are ignored.
func UnmarshalPreset(data []byte, p *core.Preset) error {
	if len(data) < headerSize {
		return ErrShortPreset
	}
	if data[0] != FormatVersion {
		return ErrPresetVersion
	}

	cpCount := int(data[1])
	spCount := int(data[2])
	if len(data) < headerSize+2*cpCount+spCount {
		return ErrShortPreset
	}

	body := data[headerSize:]
	for i := 0; i < cpCount; i++ {
		v := binary.BigEndian.Uint16(body[2*i:])
		if i < len(p.ContinuousParameters) {
			p.ContinuousParameters[i] = v
		}
	}

	body = body[2*cpCount:]
	for i := 0; i < spCount && i < len(p.SteppedParameters); i++ {
		p.SteppedParameters[i] = body[i]
	}

	return nil
}
