//go:build rp2040

package main

import (
	"machine"
	"time"
)

var midiUART = machine.UART0

// InitMIDIUART configures UART0 on GPIO0 (TX) and GPIO1 (RX) at the MIDI rate
func InitMIDIUART() error {
	return midiUART.Configure(machine.UARTConfig{
		BaudRate: 31250,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
}

// midiReaderLoop moves bytes from the UART receive buffer into the device
// input queue
func midiReaderLoop() {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			loopErrors++
			// Restart the reader loop
			time.Sleep(100 * time.Millisecond)
			go midiReaderLoop()
		}
	}()

	for {
		for midiUART.Buffered() > 0 {
			b, err := midiUART.ReadByte()
			if err != nil {
				break
			}
			bytesReceived++
			device.Input(b)
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// midiWriter transmits dump frames on the MIDI output
type midiWriter struct{}

func (midiWriter) WriteByte(b byte) error {
	return midiUART.WriteByte(b)
}
