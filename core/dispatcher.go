package core

// Dispatcher routes decoded MIDI events to the mapper, the voice assigner
// and the sysex receiver. It implements Handler.
type Dispatcher struct {
	cfg    *MIDIConfig
	state  *State
	mapper *Mapper
	rx     *SysexReceiver
	voices VoiceAssigner
}

// NewDispatcher creates a dispatcher
func NewDispatcher(cfg *MIDIConfig, state *State, mapper *Mapper, rx *SysexReceiver, voices VoiceAssigner) *Dispatcher {
	if voices == nil {
		voices = nopCollaborator{}
	}
	return &Dispatcher{
		cfg:    cfg,
		state:  state,
		mapper: mapper,
		rx:     rx,
		voices: voices,
	}
}

func (d *Dispatcher) accept(channel uint8) bool {
	return AcceptChannel(d.state.Settings.MidiReceiveChannel, channel)
}

// noteIndex converts a MIDI note to the keyboard index, clamped at zero
func (d *Dispatcher) noteIndex(note uint8) uint8 {
	if note < d.cfg.BaseNote {
		return 0
	}
	return note - d.cfg.BaseNote
}

func (d *Dispatcher) NoteOn(channel, note, velocity uint8) {
	if !d.accept(channel) {
		return
	}

	// 7-bit velocity scaled to the full 16-bit range
	scaled := uint16((uint32(velocity)+1)<<9 - 1)
	d.voices.AssignNote(d.noteIndex(note), velocity != 0, scaled, 0)
}

func (d *Dispatcher) NoteOff(channel, note, velocity uint8) {
	if !d.accept(channel) {
		return
	}

	d.voices.AssignNote(d.noteIndex(note), false, 0, 0)
}

func (d *Dispatcher) ControlChange(channel, control, value uint8) {
	if !d.accept(channel) {
		return
	}

	d.mapper.ControlChange(control, value)
}

func (d *Dispatcher) ProgramChange(channel, program uint8) {
	if !d.accept(channel) {
		return
	}

	d.mapper.ProgramChange(program)
}

// SysexBytes forwards sysex batches; sysex carries no channel
func (d *Dispatcher) SysexBytes(count uint16, b0, b1, b2 byte) {
	d.rx.Receive(count, b0, b1, b2)
}
