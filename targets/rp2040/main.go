//go:build rp2040

package main

import (
	"machine"
	"time"

	"synthmidi/core"
	"synthmidi/storage"
)

var (
	device *core.Device
	bank   *storage.MemoryBank

	// Debug counters
	bytesReceived uint32
	loopErrors    uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)

	cfg := core.DefaultMIDIConfig()
	state := core.NewState(cfg)

	bank = storage.NewMemoryBank(state.Preset)
	seedBank(cfg)

	if err := InitMIDIUART(); err != nil {
		DebugPrintln("MIDI UART init failed: " + err.Error())
		return
	}

	panel := NewPanel()

	device = core.NewDevice(cfg, state, core.Collaborators{
		Store:   bank,
		Foreign: bank,
		Voices:  panel,
	}, midiWriter{})

	DebugPrintln("MIDI ready")

	// Start UART reader goroutine
	go midiReaderLoop()

	// Main loop
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					device.Receiver().Reset()
				}
			}()

			device.Update()

			if panel.DumpRequested() {
				sent := device.DumpPresets()
				DebugPrintln("Dumped presets: " + itoa(sent))
			}
		}()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

// seedBank stores the factory init sound in slot 0
func seedBank(cfg *core.MIDIConfig) {
	factory := core.NewPreset(cfg)
	for i := range factory.ContinuousParameters {
		factory.ContinuousParameters[i] = 0x8000
	}
	bank.Store(0, factory)
}

// itoa converts an integer to a string without using fmt package
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	negative := n < 0
	if negative {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
