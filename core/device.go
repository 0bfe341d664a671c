package core

import (
	"io"

	"synthmidi/protocol"
)

// Device wires the MIDI core together: an input FIFO filled from the
// receive interrupt, a stream parser drained from the main loop, and the
// frame buffer shared by sysex reception and preset dumps
type Device struct {
	cfg   *MIDIConfig
	state *State
	c     Collaborators

	input *protocol.FifoBuffer
	frame *protocol.FrameBuffer
	drain []byte

	parser     *StreamParser
	dispatcher *Dispatcher
	mapper     *Mapper
	receiver   *SysexReceiver

	out      io.ByteWriter
	overruns uint32
}

// NewDevice builds a device. out receives dump frames and may be nil when
// the device never transmits.
func NewDevice(cfg *MIDIConfig, state *State, c Collaborators, out io.ByteWriter) *Device {
	c = c.withDefaults()

	queue := cfg.InputQueueSize
	if queue <= 1 {
		queue = 256
	}

	d := &Device{
		cfg:   cfg,
		state: state,
		c:     c,
		input: protocol.NewFifoBuffer(queue),
		frame: protocol.NewFrameBuffer(cfg.MaxSysexSize),
		drain: make([]byte, 32),
		out:   out,
	}

	d.receiver = NewSysexReceiver(d.frame, cfg.SysexID, c)
	d.mapper = NewMapper(cfg, state, c)
	d.dispatcher = NewDispatcher(cfg, state, d.mapper, d.receiver, c.Voices)
	d.parser = NewStreamParser(d.dispatcher)

	return d
}

// Input queues one received byte. Called from the UART interrupt.
func (d *Device) Input(b byte) {
	state := disableInterrupts()
	ok := d.input.Push(b)
	if !ok {
		d.overruns++
	}
	restoreInterrupts(state)

	if !ok {
		RecordEvent(EvtInputOverrun, uint16(b), 0)
	}
}

// InputBytes queues a run of received bytes
func (d *Device) InputBytes(data []byte) {
	for _, b := range data {
		d.Input(b)
	}
}

// Update drains the input queue through the parser. Called from the main loop.
func (d *Device) Update() {
	for {
		state := disableInterrupts()
		n := d.input.Read(d.drain)
		restoreInterrupts(state)

		if n == 0 {
			return
		}
		for _, b := range d.drain[:n] {
			d.parser.Feed(b)
		}
	}
}

// DumpPresets sends every stored preset as sysex, then reloads the
// selected preset since the dump walks the working preset through all slots
func (d *Device) DumpPresets() int {
	if d.out == nil {
		return 0
	}

	// The dump stages exports in the receive buffer
	d.receiver.Reset()
	sent := DumpPresets(d.cfg, d.c.Store, d.frame, d.out)

	if d.state.Settings.PresetMode != 0 {
		d.c.Store.LoadCurrent(d.state.Settings.PresetNumber)
	}
	d.c.UI.RefreshFullState()

	return sent
}

// State returns the controller state the device mutates
func (d *Device) State() *State {
	return d.state
}

// Receiver returns the sysex receiver, for registering extra commands
func (d *Device) Receiver() *SysexReceiver {
	return d.receiver
}

// Overruns returns the number of bytes dropped because the queue was full
func (d *Device) Overruns() uint32 {
	return d.overruns
}
