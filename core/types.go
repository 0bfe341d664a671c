package core

import "synthmidi/protocol"

// MIDIConfig describes how incoming MIDI maps onto the sound parameters
type MIDIConfig struct {
	ReceiveChannel int8 `json:"receiveChannel"` // Negative accepts all channels

	BaseCoarseCC  uint8 `json:"baseCoarseCC"`
	BaseFineCC    uint8 `json:"baseFineCC"`
	BaseSteppedCC uint8 `json:"baseSteppedCC"`
	BaseNote      uint8 `json:"baseNote"`

	ContinuousCount int     `json:"continuousCount"`
	SteppedBits     []uint8 `json:"steppedBits"` // Bit width per stepped parameter, 1..7

	ProgramLimit uint8 `json:"programLimit"` // Program changes at or above this are ignored
	PresetSlots  int   `json:"presetSlots"`

	SysexID        [protocol.IDSize]byte `json:"sysexID"`
	MaxSysexSize   int                   `json:"maxSysexSize"`
	InputQueueSize int                   `json:"inputQueueSize"`
}

// SteppedCount returns the number of stepped parameters
func (c *MIDIConfig) SteppedCount() int {
	return len(c.SteppedBits)
}

// DefaultSteppedBits lists the bit widths of the factory stepped parameters
// (oscillator waveforms, sync, poly-mod routing, LFO shape and targets,
// keyboard tracking, unison, assigner priority, glide and bend settings)
var DefaultSteppedBits = []uint8{
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 2, 1, 1, 2, 2,
	1, 2, 3, 2, 2, 1, 2, 2,
}

// DefaultMIDIConfig returns the factory MIDI map
func DefaultMIDIConfig() *MIDIConfig {
	bits := make([]uint8, len(DefaultSteppedBits))
	copy(bits, DefaultSteppedBits)

	return &MIDIConfig{
		ReceiveChannel:  -1,
		BaseCoarseCC:    16,
		BaseFineCC:      80,
		BaseSteppedCC:   48,
		BaseNote:        24,
		ContinuousCount: 32,
		SteppedBits:     bits,
		ProgramLimit:    100,
		PresetSlots:     100,
		SysexID:         protocol.DefaultID,
		MaxSysexSize:    protocol.MaxSysexSize,
		InputQueueSize:  256,
	}
}

// Settings is the persisted subset of controller settings touched by MIDI
type Settings struct {
	MidiReceiveChannel int8  // Negative accepts all channels
	PresetMode         uint8 // 0 = manual (pots), nonzero = preset
	PresetNumber       uint8
}

// Preset is the working sound program
type Preset struct {
	// 14-bit values: bits 15-9 coarse, bits 8-2 fine, bits 1-0 unused
	ContinuousParameters []uint16
	SteppedParameters    []uint8
}

// NewPreset allocates a zeroed preset sized for the config
func NewPreset(cfg *MIDIConfig) *Preset {
	return &Preset{
		ContinuousParameters: make([]uint16, cfg.ContinuousCount),
		SteppedParameters:    make([]uint8, cfg.SteppedCount()),
	}
}

// State groups the mutable controller state MIDI handling reads and writes
type State struct {
	Settings       Settings
	Preset         *Preset
	PresetModified bool
}

// NewState creates a state with an empty preset and settings taken from cfg
func NewState(cfg *MIDIConfig) *State {
	return &State{
		Settings: Settings{MidiReceiveChannel: cfg.ReceiveChannel},
		Preset:   NewPreset(cfg),
	}
}

// PresetStore loads, exports and imports stored presets
type PresetStore interface {
	// LoadCurrent loads slot into the working preset, reporting success
	LoadCurrent(slot uint8) bool
	// Export writes the binary form of slot into buf and returns its length
	Export(slot uint8, buf []byte) int
	// Import stores a received binary preset into slot
	Import(slot uint8, data []byte)
}

// ForeignImporter accepts program dumps in the stock firmware format
type ForeignImporter interface {
	ImportForeign(data []byte)
}

// SettingsStore persists Settings
type SettingsStore interface {
	Save()
}

// Refresher pushes state changes out to the panel and sound engine
type Refresher interface {
	RefreshFullState()
	RefreshPresetModeChanged()
	ClearPendingSelection()
}

// VoiceAssigner turns notes into voice allocations
type VoiceAssigner interface {
	AssignNote(note uint8, on bool, velocity uint16, flags uint8)
}

// Collaborators bundles the external services the MIDI core calls into.
// Nil members are replaced by no-ops.
type Collaborators struct {
	Store    PresetStore
	Foreign  ForeignImporter
	Settings SettingsStore
	UI       Refresher
	Voices   VoiceAssigner
}

type nopCollaborator struct{}

func (nopCollaborator) LoadCurrent(slot uint8) bool                          { return false }
func (nopCollaborator) Export(slot uint8, buf []byte) int                    { return 0 }
func (nopCollaborator) Import(slot uint8, data []byte)                       {}
func (nopCollaborator) ImportForeign(data []byte)                            {}
func (nopCollaborator) Save()                                                {}
func (nopCollaborator) RefreshFullState()                                    {}
func (nopCollaborator) RefreshPresetModeChanged()                            {}
func (nopCollaborator) ClearPendingSelection()                               {}
func (nopCollaborator) AssignNote(note uint8, on bool, vel uint16, f uint8) {}

func (c Collaborators) withDefaults() Collaborators {
	var nop nopCollaborator
	if c.Store == nil {
		c.Store = nop
	}
	if c.Foreign == nil {
		c.Foreign = nop
	}
	if c.Settings == nil {
		c.Settings = nop
	}
	if c.UI == nil {
		c.UI = nop
	}
	if c.Voices == nil {
		c.Voices = nop
	}
	return c
}

// Handler receives decoded MIDI events from a stream parser
type Handler interface {
	NoteOn(channel, note, velocity uint8)
	NoteOff(channel, note, velocity uint8)
	ControlChange(channel, control, value uint8)
	ProgramChange(channel, program uint8)
	// SysexBytes delivers up to three sysex bytes; count is the total
	// number of bytes of the current message delivered so far
	SysexBytes(count uint16, b0, b1, b2 byte)
}
