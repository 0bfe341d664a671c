//go:build !tinygo

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"synthmidi/core"
)

// FileBank stores one file per preset slot in a directory:
// preset-NN.bin for bank slots and foreign-NNN.syx for stock-format dumps.
// It implements core.PresetStore and core.ForeignImporter.
type FileBank struct {
	mu       sync.Mutex
	dir      string
	working  *core.Preset
	foreigns int
	lastErr  error
}

// OpenFileBank uses dir as the bank, creating it if needed
func OpenFileBank(dir string, working *core.Preset) (*FileBank, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create bank directory %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "foreign-*.syx"))
	if err != nil {
		return nil, errors.Wrap(err, "scan foreign dumps")
	}

	return &FileBank{
		dir:      dir,
		working:  working,
		foreigns: len(matches),
	}, nil
}

// Dir returns the bank directory
func (b *FileBank) Dir() string {
	return b.dir
}

// SlotPath returns the file holding slot
func (b *FileBank) SlotPath(slot uint8) string {
	return filepath.Join(b.dir, fmt.Sprintf("preset-%02d.bin", slot))
}

// LoadCurrent reads slot into the working preset
func (b *FileBank) LoadCurrent(slot uint8) bool {
	data, err := b.Read(slot)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			b.fail(err)
		}
		return false
	}

	if err := UnmarshalPreset(data, b.working); err != nil {
		b.fail(errors.Wrapf(err, "slot %d", slot))
		return false
	}
	return true
}

// Export copies the stored binary of slot into buf
func (b *FileBank) Export(slot uint8, buf []byte) int {
	data, err := b.Read(slot)
	if err != nil {
		b.fail(err)
		return 0
	}
	return copy(buf, data)
}

// Import writes a received preset to slot, dropping trailing padding
func (b *FileBank) Import(slot uint8, data []byte) {
	size := StoredSize(data)
	if size == 0 {
		b.fail(errors.Wrapf(ErrShortPreset, "import slot %d", slot))
		return
	}

	if err := b.Write(slot, data[:size]); err != nil {
		b.fail(err)
		return
	}
	log.WithField("slot", slot).Debug("Preset imported")
}

// ImportForeign saves a stock-format dump under the next free number
func (b *FileBank) ImportForeign(data []byte) {
	b.mu.Lock()
	name := filepath.Join(b.dir, fmt.Sprintf("foreign-%03d.syx", b.foreigns))
	b.foreigns++
	b.mu.Unlock()

	if err := os.WriteFile(name, data, 0o644); err != nil {
		b.fail(errors.Wrap(err, "write foreign dump"))
		return
	}
	log.WithField("file", name).Debug("Foreign dump saved")
}

// Read returns the raw binary of slot
func (b *FileBank) Read(slot uint8) ([]byte, error) {
	data, err := os.ReadFile(b.SlotPath(slot))
	if err != nil {
		return nil, errors.Wrapf(err, "read slot %d", slot)
	}
	return data, nil
}

// Write stores raw preset binary in slot
func (b *FileBank) Write(slot uint8, data []byte) error {
	if err := os.WriteFile(b.SlotPath(slot), data, 0o644); err != nil {
		return errors.Wrapf(err, "write slot %d", slot)
	}
	return nil
}

// Store saves p into slot
func (b *FileBank) Store(slot uint8, p *core.Preset) error {
	return b.Write(slot, MarshalPreset(p))
}

// Slots lists the slots present on disk in order
func (b *FileBank) Slots() ([]uint8, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, errors.Wrap(err, "list bank")
	}

	var slots []uint8
	for _, e := range entries {
		var slot int
		name := e.Name()
		if !strings.HasPrefix(name, "preset-") {
			continue
		}
		if _, err := fmt.Sscanf(name, "preset-%d.bin", &slot); err != nil || slot < 0 || slot > 255 {
			continue
		}
		slots = append(slots, uint8(slot))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, nil
}

// LastErr returns the most recent storage failure, since the collaborator
// interface has no error returns
func (b *FileBank) LastErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *FileBank) fail(err error) {
	log.WithError(err).Warn("Preset bank")

	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}
