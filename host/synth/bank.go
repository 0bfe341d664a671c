package synth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"synthmidi/core"
	"synthmidi/protocol"
)

// DefaultFrameGap paces bank pushes so the synthesizer can store each
// preset before the next frame arrives
const DefaultFrameGap = 20 * time.Millisecond

// frameWriter collects encoder output and sends each frame as one message
type frameWriter struct {
	send   func([]byte) error
	gap    time.Duration
	buf    []byte
	frames int
	err    error
}

func (w *frameWriter) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	if b != protocol.SysexEnd {
		return nil
	}

	msg := w.buf
	w.buf = nil
	if err := w.send(msg); err != nil {
		w.err = err
		return err
	}
	w.frames++
	if w.gap > 0 {
		time.Sleep(w.gap)
	}
	return nil
}

// PushBank sends every loadable slot of store to the synthesizer as bank
// transfer frames. It returns the number of frames sent and the last
// transmit error, if any.
func (s *Synth) PushBank(store core.PresetStore, gap time.Duration) (int, error) {
	if s.link == nil {
		return 0, ErrNotStarted
	}

	w := &frameWriter{send: s.link.Send, gap: gap}
	frame := protocol.NewFrameBuffer(s.cfg.MaxSysexSize)
	sent := core.DumpPresets(s.cfg, store, frame, w)

	s.log.WithField("frames", sent).Info("Bank pushed")
	if w.err != nil {
		return sent, errors.Wrap(w.err, "push bank")
	}
	return sent, nil
}

// countingStore counts imports passed through to the wrapped store
type countingStore struct {
	core.PresetStore
	imports int
}

func (c *countingStore) Import(slot uint8, data []byte) {
	c.imports++
	c.PresetStore.Import(slot, data)
}

// Capture listens for bank transfer frames for up to d, or until ctx is
// done, importing each into store and stock-format dumps into foreign.
// It returns the number of presets imported.
func (s *Synth) Capture(ctx context.Context, store core.PresetStore, foreign core.ForeignImporter, d time.Duration) (int, error) {
	if s.link == nil {
		return 0, ErrNotStarted
	}

	counter := &countingStore{PresetStore: store}
	dev := core.NewDevice(s.cfg, core.NewState(s.cfg), core.Collaborators{
		Store:   counter,
		Foreign: foreign,
	}, nil)

	var mu sync.Mutex
	s.link.SetRawHandler(func(data []byte) {
		mu.Lock()
		defer mu.Unlock()

		// Keep each chunk well inside the input queue
		for len(data) > 0 {
			n := len(data)
			if n > 64 {
				n = 64
			}
			dev.InputBytes(data[:n])
			dev.Update()
			data = data[n:]
		}
	})
	defer s.link.SetRawHandler(nil)

	timer := time.NewTimer(d)
	defer timer.Stop()

	var err error
	select {
	case <-timer.C:
	case <-ctx.Done():
		err = ctx.Err()
	}

	mu.Lock()
	n := counter.imports
	overruns := dev.Overruns()
	mu.Unlock()

	s.log.WithFields(log.Fields{
		"presets":  n,
		"overruns": overruns,
	}).Info("Capture finished")

	return n, err
}

// NextFrame waits for the next own-format sysex frame from the synthesizer
// and decodes it. Frames in other formats are skipped.
func (s *Synth) NextFrame(timeout time.Duration) (*protocol.Frame, error) {
	if s.link == nil {
		return nil, ErrNotStarted
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case raw := <-s.link.Frames():
			frame, err := protocol.ParseFrame(raw, s.cfg.SysexID)
			if err != nil {
				s.log.WithError(err).Debug("Skipping frame")
				continue
			}
			return frame, nil
		case <-deadline.C:
			return nil, protocol.ErrTimeout
		}
	}
}
