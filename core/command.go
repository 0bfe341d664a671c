package core

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown sysex command")
	ErrEmptyPayload   = errors.New("sysex payload empty")
)

// SysexHandler handles a completed own-format frame. buf is the whole
// frame buffer (identifier at 0, command at 3, encoded payload from 4) and
// size is the number of bytes received after F0. Handlers may decode in
// place anywhere in buf.
type SysexHandler func(buf []byte, size int) error

// SysexCommand represents a command byte the receiver understands
type SysexCommand struct {
	ID      byte
	Name    string
	Handler SysexHandler
}

// SysexCommands holds the registered sysex commands
type SysexCommands struct {
	mu       sync.RWMutex
	commands map[byte]*SysexCommand
	nameToID map[string]byte
}

// NewSysexCommands creates an empty command registry
func NewSysexCommands() *SysexCommands {
	return &SysexCommands{
		commands: make(map[byte]*SysexCommand),
		nameToID: make(map[string]byte),
	}
}

// Register binds a handler to a command byte, replacing any previous binding
func (r *SysexCommands) Register(id byte, name string, handler SysexHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.commands[id]; exists {
		delete(r.nameToID, old.Name)
	}

	r.commands[id] = &SysexCommand{
		ID:      id,
		Name:    name,
		Handler: handler,
	}
	r.nameToID[name] = id
}

// GetCommand retrieves a command by its byte
func (r *SysexCommands) GetCommand(id byte) (*SysexCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// GetCommandByName retrieves a command by name
func (r *SysexCommands) GetCommandByName(name string) (*SysexCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands
func (r *SysexCommands) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for id
func (r *SysexCommands) Dispatch(id byte, buf []byte, size int) error {
	cmd, ok := r.GetCommand(id)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}

	return cmd.Handler(buf, size)
}

// Dictionary lists the registered commands, one "0xNN name" per line,
// ordered by command byte
func (r *SysexCommands) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	dict := ""
	for _, id := range ids {
		dict += "0x" + hex8(byte(id)) + " " + r.commands[byte(id)].Name + "\n"
	}
	return dict
}
