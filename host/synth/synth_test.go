package synth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"synthmidi/core"
	"synthmidi/protocol"
	"synthmidi/storage"
)

// fakeLink records sent messages and lets tests inject received bytes
type fakeLink struct {
	mu        sync.Mutex
	sent      [][]byte
	sendErr   error
	handler   protocol.RawHandler
	installed chan struct{}
	frames    chan []byte
	closed    bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		installed: make(chan struct{}, 1),
		frames:    make(chan []byte, 4),
	}
}

func (l *fakeLink) Send(msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, append([]byte(nil), msg...))
	return nil
}

func (l *fakeLink) Frames() <-chan []byte {
	return l.frames
}

func (l *fakeLink) SetRawHandler(handler protocol.RawHandler) {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()
	if handler != nil {
		l.installed <- struct{}{}
	}
}

func (l *fakeLink) deliver(data []byte) {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (l *fakeLink) Close() error {
	l.closed = true
	return nil
}

func (l *fakeLink) messages() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent
}

func TestSetParameter(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	if err := s.SetParameter(2, 5, 0x3FFF); err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}

	want := [][]byte{
		{0xB2, 16 + 5, 0x7F},
		{0xB2, 80 + 5, 0x7F},
	}
	got := link.messages()
	if len(got) != len(want) {
		t.Fatalf("Sent %d messages, expected %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("Message %d = % X, expected % X", i, got[i], want[i])
		}
	}
}

func TestSetParameterSplitsValue(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	if err := s.SetParameter(0, 0, 0x1234); err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}
	got := link.messages()
	if got[0][2] != 0x1234>>7 || got[1][2] != 0x1234&0x7F {
		t.Errorf("Coarse/fine = %d/%d", got[0][2], got[1][2])
	}
}

func TestSetStepped(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	// Parameter 18 is three bits wide
	if err := s.SetStepped(0, 18, 5); err != nil {
		t.Fatalf("SetStepped failed: %v", err)
	}
	if got := link.messages()[0]; !bytes.Equal(got, []byte{0xB0, 48 + 18, 5 << 4}) {
		t.Errorf("Sent % X", got)
	}

	if err := s.SetStepped(0, 18, 8); err != ErrDataByte {
		t.Errorf("Expected ErrDataByte, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	s := New(newFakeLink(), nil)

	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"channel", s.SendControlChange(16, 1, 1), ErrChannel},
		{"value", s.SendControlChange(0, 1, 128), ErrDataByte},
		{"program", s.SendProgramChange(0, 200), ErrDataByte},
		{"index", s.SetParameter(0, 32, 0), ErrParameter},
		{"value14", s.SetParameter(0, 0, 0x4000), ErrValue14},
		{"stepped index", s.SetStepped(0, 24, 0), ErrParameter},
	}

	for _, tc := range testCases {
		if tc.err != tc.want {
			t.Errorf("%s: got %v, expected %v", tc.name, tc.err, tc.want)
		}
	}
}

func TestSetPresetMode(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	s.SetPresetMode(3, true)
	s.SendProgramChange(3, 42)

	got := link.messages()
	if !bytes.Equal(got[0], []byte{0xB3, 0, 1}) || !bytes.Equal(got[1], []byte{0xC3, 42}) {
		t.Errorf("Sent % X", got)
	}
}

func testBank(t *testing.T, cfg *core.MIDIConfig, slots ...uint8) *storage.MemoryBank {
	t.Helper()
	bank := storage.NewMemoryBank(core.NewPreset(cfg))
	for _, slot := range slots {
		p := core.NewPreset(cfg)
		p.ContinuousParameters[0] = uint16(slot) << 9
		p.SteppedParameters[0] = 1
		bank.Store(slot, p)
	}
	return bank
}

func TestPushBank(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)
	bank := testBank(t, s.Config(), 0, 7, 99)

	sent, err := s.PushBank(bank, 0)
	if err != nil {
		t.Fatalf("PushBank failed: %v", err)
	}
	if sent != 3 {
		t.Errorf("Sent %d presets, expected 3", sent)
	}

	msgs := link.messages()
	if len(msgs) != 3 {
		t.Fatalf("Link saw %d messages, expected 3", len(msgs))
	}
	for _, msg := range msgs {
		frame, err := protocol.ParseFrame(msg, protocol.DefaultID)
		if err != nil {
			t.Fatalf("Pushed frame does not parse: %v", err)
		}
		if frame.Command != protocol.CommandBankA {
			t.Errorf("Command = 0x%02X", frame.Command)
		}
	}
}

func TestPushBankSendError(t *testing.T) {
	link := newFakeLink()
	link.sendErr = errors.New("port gone")
	s := New(link, nil)

	sent, err := s.PushBank(testBank(t, s.Config(), 1), 0)
	if err == nil || sent != 0 {
		t.Errorf("Expected failure, got sent=%d err=%v", sent, err)
	}
}

func TestCapture(t *testing.T) {
	// Produce a dump the way the synthesizer would
	cfg := core.DefaultMIDIConfig()
	src := testBank(t, cfg, 3, 64)
	var wire bytes.Buffer
	core.DumpPresets(cfg, src, protocol.NewFrameBuffer(0), &wire)

	link := newFakeLink()
	s := New(link, cfg)
	dst := storage.NewMemoryBank(core.NewPreset(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := s.Capture(ctx, dst, dst, time.Minute)
		done <- result{n, err}
	}()

	select {
	case <-link.installed:
	case <-time.After(time.Second):
		t.Fatal("Capture never installed its handler")
	}

	// Deliver in odd-sized chunks, as a serial port would
	data := wire.Bytes()
	for len(data) > 0 {
		n := 37
		if n > len(data) {
			n = len(data)
		}
		link.deliver(data[:n])
		data = data[n:]
	}
	cancel()

	r := <-done
	if r.err != context.Canceled {
		t.Errorf("Capture returned %v, expected context.Canceled", r.err)
	}
	if r.n != 2 {
		t.Errorf("Captured %d presets, expected 2", r.n)
	}
	for _, slot := range []uint8{3, 64} {
		want, _ := src.Get(slot)
		got, ok := dst.Get(slot)
		if !ok || !bytes.Equal(got, want) {
			t.Errorf("Slot %d: got % X, expected % X", slot, got, want)
		}
	}
}

func TestNextFrame(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	link.frames <- []byte{0xF0, 0x41, 0x10, 0xF7}
	link.frames <- protocol.AppendSysex(nil, protocol.DefaultID, protocol.CommandBankA, []byte{5, 6, 7, 8})

	frame, err := s.NextFrame(time.Second)
	if err != nil {
		t.Fatalf("NextFrame failed: %v", err)
	}
	if !bytes.Equal(frame.Payload, []byte{5, 6, 7, 8}) {
		t.Errorf("Payload = % X", frame.Payload)
	}

	if _, err := s.NextFrame(10 * time.Millisecond); err != protocol.ErrTimeout {
		t.Errorf("Expected timeout, got %v", err)
	}
}

func TestMCPControlChange(t *testing.T) {
	link := newFakeLink()
	s := New(link, nil)

	req := mcp.CallToolRequest{}
	req.Params.Name = "synth_control-change"
	req.Params.Arguments = map[string]any{
		"channel": float64(1),
		"control": float64(20),
		"value":   float64(99),
	}

	res, err := s.handleControlChange(context.Background(), req)
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Tool reported error: %+v", res.Content)
	}
	if got := link.messages(); len(got) != 1 || !bytes.Equal(got[0], []byte{0xB1, 20, 99}) {
		t.Errorf("Sent % X", got)
	}

	req.Params.Arguments = map[string]any{"channel": float64(1), "control": float64(20), "value": float64(300)}
	res, err = s.handleControlChange(context.Background(), req)
	if err != nil || !res.IsError {
		t.Error("Out of range value was accepted")
	}
}

func TestMCPDescribeMap(t *testing.T) {
	s := New(newFakeLink(), nil)

	res, err := s.handleDescribeMap(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Unexpected content %T", res.Content[0])
	}
	if !strings.Contains(text.Text, `"coarseCC": [`) || !strings.Contains(text.Text, "47") {
		t.Errorf("Map description missing coarse range: %s", text.Text)
	}
}

func TestMCPServerTools(t *testing.T) {
	srv := NewMCPServer(New(newFakeLink(), nil), "test")
	if srv == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
