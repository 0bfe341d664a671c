package synth

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"synthmidi/host/serial"
	"synthmidi/protocol"
)

// Link carries MIDI messages to and from the synthesizer
type Link interface {
	// Send writes one complete MIDI message
	Send(msg []byte) error
	// Frames delivers complete received sysex frames, F0 and F7 included
	Frames() <-chan []byte
	// SetRawHandler installs a callback for all received bytes
	SetRawHandler(handler protocol.RawHandler)
	Close() error
}

// OpenSerialLink opens a UART MIDI interface. The host transport already
// provides everything a Link needs.
func OpenSerialLink(cfg *serial.Config, id [protocol.IDSize]byte) (Link, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return protocol.NewHostTransport(port, id), nil
}

// PortLink is a Link over system MIDI ports
type PortLink struct {
	in   drivers.In
	out  drivers.Out
	send func(midi.Message) error
	stop func()

	frames chan []byte

	handlerMu sync.RWMutex
	handler   protocol.RawHandler

	closeOnce sync.Once
}

// OpenPortLink opens the first input and output ports whose names contain
// nameHint, case-insensitively
func OpenPortLink(nameHint string) (*PortLink, error) {
	out, err := findOutPort(nameHint)
	if err != nil {
		return nil, err
	}
	in, err := findInPort(nameHint)
	if err != nil {
		return nil, err
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %s", out.String())
	}

	l := &PortLink{
		in:     in,
		out:    out,
		send:   send,
		frames: make(chan []byte, 16),
	}

	stop, err := midi.ListenTo(in, l.receive, midi.UseSysEx(), midi.SysExBufferSize(protocol.MaxSysexSize*2))
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", in.String())
	}
	l.stop = stop

	return l, nil
}

func (l *PortLink) receive(msg midi.Message, timestampms int32) {
	data := msg.Bytes()

	l.handlerMu.RLock()
	h := l.handler
	l.handlerMu.RUnlock()
	if h != nil {
		h(data)
	}

	if len(data) > 0 && data[0] == protocol.SysexStart {
		frame := append([]byte(nil), data...)
		select {
		case l.frames <- frame:
		default:
			// Channel full, drop oldest
			select {
			case <-l.frames:
			default:
			}
			l.frames <- frame
		}
	}
}

// Send writes one message to the output port
func (l *PortLink) Send(msg []byte) error {
	return l.send(midi.Message(msg))
}

// Frames delivers received sysex frames
func (l *PortLink) Frames() <-chan []byte {
	return l.frames
}

// SetRawHandler installs a callback for every received message
func (l *PortLink) SetRawHandler(handler protocol.RawHandler) {
	l.handlerMu.Lock()
	l.handler = handler
	l.handlerMu.Unlock()
}

// Close stops listening and closes both ports
func (l *PortLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.stop != nil {
			l.stop()
		}
		if cerr := l.in.Close(); cerr != nil {
			err = cerr
		}
		if cerr := l.out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

// ListPorts returns the names of the system MIDI inputs and outputs
func ListPorts() (ins, outs []string) {
	for _, in := range midi.GetInPorts() {
		ins = append(ins, in.String())
	}
	for _, out := range midi.GetOutPorts() {
		outs = append(outs, out.String())
	}
	return ins, outs
}

// CloseDrivers releases the MIDI driver
func CloseDrivers() {
	midi.CloseDriver()
}

func findOutPort(nameFragment string) (drivers.Out, error) {
	outs := midi.GetOutPorts()
	if len(outs) == 0 {
		return nil, errors.New("no MIDI outputs available")
	}

	lower := strings.ToLower(nameFragment)
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), lower) {
			return out, nil
		}
	}

	return nil, errors.Errorf("no MIDI output contains %q", nameFragment)
}

func findInPort(nameFragment string) (drivers.In, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, errors.New("no MIDI inputs available")
	}

	lower := strings.ToLower(nameFragment)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}

	return nil, errors.Errorf("no MIDI input contains %q", nameFragment)
}
