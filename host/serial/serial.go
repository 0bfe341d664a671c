package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// MIDIBaud is the DIN MIDI line rate
const MIDIBaud = 31250

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (31250 for a DIN MIDI interface, USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for a MIDI UART
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        MIDIBaud,
		ReadTimeout: 100, // 100ms read timeout
	}
}
