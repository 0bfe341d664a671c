package storage

import (
	"sort"
	"sync"

	"synthmidi/core"
)

// MemoryBank keeps presets in RAM. It loads into the working preset it was
// created with and implements core.PresetStore and core.ForeignImporter.
type MemoryBank struct {
	mu      sync.Mutex
	working *core.Preset
	slots   map[uint8][]byte
	foreign [][]byte
}

// NewMemoryBank creates an empty bank over the working preset
func NewMemoryBank(working *core.Preset) *MemoryBank {
	return &MemoryBank{
		working: working,
		slots:   make(map[uint8][]byte),
	}
}

// LoadCurrent copies slot into the working preset
func (b *MemoryBank) LoadCurrent(slot uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.slots[slot]
	if !ok {
		return false
	}
	return UnmarshalPreset(data, b.working) == nil
}

// Export writes the stored binary of slot into buf
func (b *MemoryBank) Export(slot uint8, buf []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return copy(buf, b.slots[slot])
}

// Import stores data into slot, dropping any trailing padding. Data that
// does not parse is discarded.
func (b *MemoryBank) Import(slot uint8, data []byte) {
	size := StoredSize(data)
	if size == 0 {
		core.RecordEvent(core.EvtBadPayload, uint16(slot), uint16(len(data)))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[slot] = append([]byte(nil), data[:size]...)
}

// ImportForeign keeps a copy of a stock-format dump
func (b *MemoryBank) ImportForeign(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.foreign = append(b.foreign, append([]byte(nil), data...))
}

// Store saves p into slot
func (b *MemoryBank) Store(slot uint8, p *core.Preset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[slot] = MarshalPreset(p)
}

// Get returns the raw binary held in slot
func (b *MemoryBank) Get(slot uint8) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.slots[slot]
	return data, ok
}

// Slots returns the occupied slot numbers in order
func (b *MemoryBank) Slots() []uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots := make([]uint8, 0, len(b.slots))
	for slot := range b.slots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// Foreign returns the stock-format dumps received so far
func (b *MemoryBank) Foreign() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.foreign...)
}
