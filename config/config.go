package config

import (
	"encoding/json"
	"errors"
	"os"

	"synthmidi/core"
	"synthmidi/protocol"
)

var (
	ErrChannel       = errors.New("receive channel must be -1..15")
	ErrControlRange  = errors.New("control range outside 1..127")
	ErrRangeOverlap  = errors.New("control ranges overlap")
	ErrSteppedBits   = errors.New("stepped parameter width must be 1..7")
	ErrProgramLimit  = errors.New("program limit exceeds 128")
	ErrPresetSlots   = errors.New("preset slots must be 1..256")
	ErrSysexSize     = errors.New("sysex buffer smaller than one frame header")
	ErrSysexIdentity = errors.New("sysex identifier bytes must be below 0x80")
)

// LoadConfig parses a JSON configuration string and returns a MIDIConfig
func LoadConfig(jsonData []byte) (*core.MIDIConfig, error) {
	var config core.MIDIConfig

	// Unset channel means omni; zero would mean channel 1
	config.ReceiveChannel = -1

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFile reads a configuration file, or returns the defaults when path
// is empty
func LoadFile(path string) (*core.MIDIConfig, error) {
	if path == "" {
		return core.DefaultMIDIConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(data)
}

// applyDefaults fills in missing configuration values from the factory map
func applyDefaults(config *core.MIDIConfig) {
	def := core.DefaultMIDIConfig()

	// Control ranges
	if config.BaseCoarseCC == 0 {
		config.BaseCoarseCC = def.BaseCoarseCC
	}
	if config.BaseFineCC == 0 {
		config.BaseFineCC = def.BaseFineCC
	}
	if config.BaseSteppedCC == 0 {
		config.BaseSteppedCC = def.BaseSteppedCC
	}
	if config.BaseNote == 0 {
		config.BaseNote = def.BaseNote
	}

	// Parameter layout
	if config.ContinuousCount == 0 {
		config.ContinuousCount = def.ContinuousCount
	}
	if len(config.SteppedBits) == 0 {
		config.SteppedBits = def.SteppedBits
	}

	// Presets
	if config.ProgramLimit == 0 {
		config.ProgramLimit = def.ProgramLimit
	}
	if config.PresetSlots == 0 {
		config.PresetSlots = def.PresetSlots
	}

	// Sysex
	if config.SysexID == [protocol.IDSize]byte{} {
		config.SysexID = def.SysexID
	}
	if config.MaxSysexSize == 0 {
		config.MaxSysexSize = def.MaxSysexSize
	}
	if config.InputQueueSize == 0 {
		config.InputQueueSize = def.InputQueueSize
	}
}

// Validate checks that every CC range fits in the controller space without
// touching the mode control or another range
func Validate(config *core.MIDIConfig) error {
	if config.ReceiveChannel < -1 || config.ReceiveChannel > 15 {
		return ErrChannel
	}

	type span struct{ lo, hi int }
	spans := []span{
		{int(config.BaseCoarseCC), int(config.BaseCoarseCC) + config.ContinuousCount},
		{int(config.BaseFineCC), int(config.BaseFineCC) + config.ContinuousCount},
		{int(config.BaseSteppedCC), int(config.BaseSteppedCC) + config.SteppedCount()},
	}
	for _, s := range spans {
		if s.lo <= core.ModeControl || s.hi > 128 {
			return ErrControlRange
		}
	}
	for i, a := range spans {
		for _, b := range spans[i+1:] {
			if a.lo < b.hi && b.lo < a.hi {
				return ErrRangeOverlap
			}
		}
	}

	for _, bits := range config.SteppedBits {
		if bits < 1 || bits > 7 {
			return ErrSteppedBits
		}
	}

	if config.ProgramLimit > 128 {
		return ErrProgramLimit
	}
	if config.PresetSlots < 1 || config.PresetSlots > 256 {
		return ErrPresetSlots
	}
	if config.MaxSysexSize < protocol.HeaderSize+1 {
		return ErrSysexSize
	}
	for _, b := range config.SysexID {
		if b&protocol.StatusMask != 0 {
			return ErrSysexIdentity
		}
	}

	return nil
}
