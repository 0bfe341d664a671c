package protocol

import "errors"

// ErrBufferFull is returned when a fixed-size buffer cannot take another byte
var ErrBufferFull = errors.New("buffer full")

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// WriteByte appends one byte, satisfying io.ByteWriter
	WriteByte(b byte) error

	// Len returns the current write position
	Len() int
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer
type ScratchOutput struct {
	buf []byte
	pos int
}

// NewScratchOutput creates a new ScratchOutput with the given capacity
func NewScratchOutput(capacity int) *ScratchOutput {
	return &ScratchOutput{buf: make([]byte, capacity)}
}

func (s *ScratchOutput) WriteByte(b byte) error {
	if s.pos >= len(s.buf) {
		return ErrBufferFull
	}
	s.buf[s.pos] = b
	s.pos++
	return nil
}

func (s *ScratchOutput) Len() int {
	return s.pos
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FrameBuffer is the fixed-capacity scratch area shared by sysex reception
// and preset export. The write index never exceeds the capacity.
type FrameBuffer struct {
	buf []byte
	n   int
}

// NewFrameBuffer creates a FrameBuffer with the given capacity
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity <= 0 {
		capacity = MaxSysexSize
	}
	return &FrameBuffer{buf: make([]byte, capacity)}
}

// Append stores b at the write index. It returns false, storing nothing,
// when the buffer is already at capacity.
func (f *FrameBuffer) Append(b byte) bool {
	if f.n >= len(f.buf) {
		return false
	}
	f.buf[f.n] = b
	f.n++
	return true
}

// Len returns the number of bytes written since the last reset
func (f *FrameBuffer) Len() int {
	return f.n
}

// Cap returns the buffer capacity
func (f *FrameBuffer) Cap() int {
	return len(f.buf)
}

// Full reports whether the next Append would overflow
func (f *FrameBuffer) Full() bool {
	return f.n >= len(f.buf)
}

// Bytes returns the written portion of the buffer
func (f *FrameBuffer) Bytes() []byte {
	return f.buf[:f.n]
}

// Raw returns the whole backing array, for in-place decoding and export staging
func (f *FrameBuffer) Raw() []byte {
	return f.buf
}

// Rewind moves the write index back to zero without clearing content
func (f *FrameBuffer) Rewind() {
	f.n = 0
}

// Reset zeroes the content and the write index
func (f *FrameBuffer) Reset() {
	for i := range f.buf {
		f.buf[i] = 0
	}
	f.n = 0
}

// FifoBuffer is a circular buffer between the byte-arrival interrupt and
// the main loop
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		if !f.Push(b) {
			break
		}
		written++
	}
	return written
}

// Push appends a single byte, returning false when the buffer is full
func (f *FifoBuffer) Push(b byte) bool {
	nextWrite := (f.write + 1) % f.size
	if nextWrite == f.read {
		return false
	}
	f.buf[f.write] = b
	f.write = nextWrite
	return true
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			// Buffer empty
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
