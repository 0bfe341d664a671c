package core

import "synthmidi/protocol"

// Control number reserved for switching between manual and preset mode
const ModeControl = 0

// Bit layout of continuous parameters
const (
	coarseShift = 9
	fineShift   = 2
	coarseKeep  = 0x01FC // fine bits survive a coarse write
	fineKeep    = 0xFE00 // coarse bits survive a fine write
)

// Mapper applies control and program changes to the controller state
type Mapper struct {
	cfg   *MIDIConfig
	state *State

	store    PresetStore
	settings SettingsStore
	ui       Refresher
}

// NewMapper creates a mapper over state
func NewMapper(cfg *MIDIConfig, state *State, c Collaborators) *Mapper {
	c = c.withDefaults()
	return &Mapper{
		cfg:      cfg,
		state:    state,
		store:    c.Store,
		settings: c.Settings,
		ui:       c.UI,
	}
}

// ControlChange handles a CC after channel filtering
func (m *Mapper) ControlChange(control, value uint8) {
	value &= protocol.DataMask
	s := &m.state.Settings

	if control == ModeControl && value <= 1 && s.PresetMode != value {
		s.PresetMode = value
		m.settings.Save()
		m.ui.RefreshPresetModeChanged()
		m.ui.RefreshFullState()
	}

	// Manual mode: the pot scan owns the parameters
	if s.PresetMode == 0 {
		return
	}

	modified := false
	cp := m.state.Preset.ContinuousParameters
	sp := m.state.Preset.SteppedParameters

	if idx, ok := rangeIndex(control, m.cfg.BaseCoarseCC, m.cfg.ContinuousCount); ok && idx < len(cp) {
		cp[idx] = cp[idx]&coarseKeep | uint16(value)<<coarseShift
		modified = true
	} else if idx, ok := rangeIndex(control, m.cfg.BaseFineCC, m.cfg.ContinuousCount); ok && idx < len(cp) {
		cp[idx] = cp[idx]&fineKeep | uint16(value)<<fineShift
		modified = true
	} else if idx, ok := rangeIndex(control, m.cfg.BaseSteppedCC, m.cfg.SteppedCount()); ok && idx < len(sp) {
		bits := m.cfg.SteppedBits[idx]
		if bits > 7 {
			bits = 7
		}
		sp[idx] = value >> (7 - bits)
		modified = true
	} else if control != ModeControl {
		RecordEvent(EvtIndexOutOfRange, uint16(control), uint16(value))
	}

	if modified {
		m.state.PresetModified = true
		m.ui.RefreshFullState()
	}
}

// ProgramChange selects a stored preset when in preset mode
func (m *Mapper) ProgramChange(program uint8) {
	s := &m.state.Settings

	if s.PresetMode == 0 || program >= m.cfg.ProgramLimit || program == s.PresetNumber {
		return
	}

	if !m.store.LoadCurrent(program) {
		RecordEvent(EvtPresetLoadFailure, uint16(program), 0)
		return
	}

	s.PresetNumber = program
	m.ui.ClearPendingSelection()
	m.state.PresetModified = false
	m.settings.Save()
	m.ui.RefreshFullState()
}

// rangeIndex maps control onto [base, base+count)
func rangeIndex(control, base uint8, count int) (int, bool) {
	if control < base {
		return 0, false
	}
	idx := int(control - base)
	return idx, idx < count
}
