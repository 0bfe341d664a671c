package synth

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"synthmidi/core"
	"synthmidi/protocol"
)

var (
	ErrChannel    = errors.New("channel must be 0..15")
	ErrDataByte   = errors.New("value must be 0..127")
	ErrParameter  = errors.New("parameter index out of range")
	ErrValue14    = errors.New("value must be 0..16383")
	ErrNotStarted = errors.New("synth link not open")
)

// Synth is a host-side connection to the synthesizer
type Synth struct {
	link Link
	cfg  *core.MIDIConfig
	log  *log.Entry
}

// New wraps an open link. cfg describes the synthesizer's MIDI map.
func New(link Link, cfg *core.MIDIConfig) *Synth {
	if cfg == nil {
		cfg = core.DefaultMIDIConfig()
	}
	return &Synth{
		link: link,
		cfg:  cfg,
		log:  log.WithField("component", "synth"),
	}
}

// Config returns the MIDI map in use
func (s *Synth) Config() *core.MIDIConfig {
	return s.cfg
}

// Close closes the underlying link
func (s *Synth) Close() error {
	if s.link == nil {
		return nil
	}
	return s.link.Close()
}

func (s *Synth) send(msg midi.Message) error {
	if s.link == nil {
		return ErrNotStarted
	}
	s.log.WithField("msg", msg.String()).Debug("Send")
	return s.link.Send(msg.Bytes())
}

// SendControlChange sends one CC
func (s *Synth) SendControlChange(channel, control, value uint8) error {
	if channel > 15 {
		return ErrChannel
	}
	if control > 127 || value > 127 {
		return ErrDataByte
	}
	return errors.Wrap(s.send(midi.ControlChange(channel, control, value)), "control change")
}

// SendProgramChange selects a preset
func (s *Synth) SendProgramChange(channel, program uint8) error {
	if channel > 15 {
		return ErrChannel
	}
	if program > 127 {
		return ErrDataByte
	}
	return errors.Wrap(s.send(midi.ProgramChange(channel, program)), "program change")
}

// SetPresetMode switches between manual and preset mode
func (s *Synth) SetPresetMode(channel uint8, preset bool) error {
	var v uint8
	if preset {
		v = 1
	}
	return s.SendControlChange(channel, core.ModeControl, v)
}

// SetParameter writes a 14-bit continuous parameter as a coarse and a fine CC
func (s *Synth) SetParameter(channel uint8, index int, value uint16) error {
	if index < 0 || index >= s.cfg.ContinuousCount {
		return ErrParameter
	}
	if value > 0x3FFF {
		return ErrValue14
	}

	coarse := s.cfg.BaseCoarseCC + uint8(index)
	fine := s.cfg.BaseFineCC + uint8(index)

	if err := s.SendControlChange(channel, coarse, uint8(value>>7)); err != nil {
		return err
	}
	return s.SendControlChange(channel, fine, uint8(value&protocol.DataMask))
}

// SetStepped writes a stepped parameter. value is in the parameter's own
// range and is scaled up to the CC range.
func (s *Synth) SetStepped(channel uint8, index int, value uint8) error {
	if index < 0 || index >= s.cfg.SteppedCount() {
		return ErrParameter
	}

	bits := s.cfg.SteppedBits[index]
	if bits > 7 {
		bits = 7
	}
	if int(value) >= 1<<bits {
		return ErrDataByte
	}

	return s.SendControlChange(channel, s.cfg.BaseSteppedCC+uint8(index), value<<(7-bits))
}

// PlayNote sends a note on, waits, then sends the note off
func (s *Synth) PlayNote(channel, note, velocity uint8, length time.Duration) error {
	if channel > 15 {
		return ErrChannel
	}
	if err := s.send(midi.NoteOn(channel, note, velocity)); err != nil {
		return errors.Wrap(err, "note on")
	}
	time.Sleep(length)
	return errors.Wrap(s.send(midi.NoteOff(channel, note)), "note off")
}
