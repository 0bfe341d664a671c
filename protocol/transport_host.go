package protocol

import (
	"errors"
	"io"
	"sync"
	"time"
)

var (
	ErrTimeout          = errors.New("timed out waiting for sysex frame")
	ErrTransportStopped = errors.New("transport stopped")
	ErrShortWrite       = errors.New("incomplete write")
)

// RawHandler receives every chunk of bytes read from the port
type RawHandler func(data []byte)

// HostTransport talks to the synthesizer from a computer over a byte port.
// It collects complete sysex frames from the incoming stream and writes
// outgoing messages atomically.
type HostTransport struct {
	port io.ReadWriteCloser
	id   [IDSize]byte

	// Frame assembly, only touched by the read loop
	frame   []byte
	inSysex bool
	maxSize int

	frameChan  chan []byte
	rawHandler RawHandler

	writeMutex sync.Mutex
	handlerMu  sync.RWMutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewHostTransport creates a host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser, id [IDSize]byte) *HostTransport {
	t := &HostTransport{
		port:      port,
		id:        id,
		maxSize:   MaxSysexSize,
		frame:     make([]byte, 0, 256),
		frameChan: make(chan []byte, 16),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// SetRawHandler installs a callback for all received bytes
func (t *HostTransport) SetRawHandler(handler RawHandler) {
	t.handlerMu.Lock()
	t.rawHandler = handler
	t.handlerMu.Unlock()
}

// Send writes one complete MIDI message
func (t *HostTransport) Send(msg []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return ErrShortWrite
	}
	return nil
}

// SendSysex encodes data as an own-format frame and writes it
func (t *HostTransport) SendSysex(command byte, data []byte) error {
	return t.Send(AppendSysex(nil, t.id, command, data))
}

// ReceiveFrame returns the next complete sysex frame, including F0 and F7
func (t *HostTransport) ReceiveFrame(timeout time.Duration) ([]byte, error) {
	select {
	case f := <-t.frameChan:
		return f, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	case <-t.stopChan:
		return nil, ErrTransportStopped
	}
}

// Frames exposes the frame channel for select loops
func (t *HostTransport) Frames() <-chan []byte {
	return t.frameChan
}

// readLoop continuously reads from the port and assembles frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.processBytes(buffer[:n])
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processBytes hands data to the raw handler and extracts sysex frames
func (t *HostTransport) processBytes(data []byte) {
	t.handlerMu.RLock()
	h := t.rawHandler
	t.handlerMu.RUnlock()
	if h != nil {
		h(data)
	}

	for _, b := range data {
		switch {
		case b >= RealtimeMin:
			// Realtime bytes may interleave with sysex
		case b == SysexStart:
			t.frame = append(t.frame[:0], b)
			t.inSysex = true
		case b == SysexEnd:
			if t.inSysex {
				t.frame = append(t.frame, b)
				t.emit()
			}
			t.inSysex = false
		case b&StatusMask != 0:
			// Any other status aborts a frame in progress
			t.inSysex = false
		case t.inSysex:
			if len(t.frame) >= t.maxSize {
				t.inSysex = false
				continue
			}
			t.frame = append(t.frame, b)
		}
	}
}

func (t *HostTransport) emit() {
	out := make([]byte, len(t.frame))
	copy(out, t.frame)

	select {
	case t.frameChan <- out:
	default:
		// Channel full, drop oldest
		select {
		case <-t.frameChan:
		default:
		}
		t.frameChan <- out
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}
