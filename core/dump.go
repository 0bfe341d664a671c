package core

import (
	"io"

	"synthmidi/protocol"
)

// DumpPresets transmits every loadable preset slot as a bank transfer
// frame, staging each export in frame. Slots that fail to load or to
// transmit are skipped. It returns the number of frames sent.
func DumpPresets(cfg *MIDIConfig, store PresetStore, frame *protocol.FrameBuffer, out io.ByteWriter) int {
	sent := 0

	for slot := 0; slot < cfg.PresetSlots; slot++ {
		if !store.LoadCurrent(uint8(slot)) {
			continue
		}

		// Payload: slot byte, then the preset binary
		frame.Reset()
		buf := frame.Raw()
		buf[0] = uint8(slot)
		n := store.Export(uint8(slot), buf[1:])
		if n < 0 {
			n = 0
		}
		if n > len(buf)-1 {
			n = len(buf) - 1
		}

		if err := transmitSysex(out, cfg.SysexID, protocol.CommandBankA, buf[:n+1]); err != nil {
			RecordEvent(EvtTransmitError, uint16(slot), 0)
			continue
		}
		sent++
	}

	return sent
}

// transmitSysex encodes and sends one frame with interrupts held off for
// the whole message
func transmitSysex(out io.ByteWriter, id [protocol.IDSize]byte, command byte, data []byte) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	return protocol.EncodeSysex(out, id, command, data)
}
