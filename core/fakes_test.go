package core

// Mock collaborators shared by the core tests

type importCall struct {
	slot uint8
	data []byte
}

type fakeStore struct {
	slots   map[uint8][]byte
	current *Preset
	loads   []uint8
	imports []importCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{slots: make(map[uint8][]byte)}
}

func (f *fakeStore) LoadCurrent(slot uint8) bool {
	f.loads = append(f.loads, slot)
	_, ok := f.slots[slot]
	return ok
}

func (f *fakeStore) Export(slot uint8, buf []byte) int {
	return copy(buf, f.slots[slot])
}

func (f *fakeStore) Import(slot uint8, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.imports = append(f.imports, importCall{slot: slot, data: cp})
}

type fakeForeign struct {
	dumps [][]byte
}

func (f *fakeForeign) ImportForeign(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.dumps = append(f.dumps, cp)
}

type fakeSettings struct {
	saves int
}

func (f *fakeSettings) Save() {
	f.saves++
}

type fakeUI struct {
	full      int
	modeSwaps int
	clears    int
}

func (f *fakeUI) RefreshFullState()         { f.full++ }
func (f *fakeUI) RefreshPresetModeChanged() { f.modeSwaps++ }
func (f *fakeUI) ClearPendingSelection()    { f.clears++ }

type noteCall struct {
	note     uint8
	on       bool
	velocity uint16
	flags    uint8
}

type fakeVoices struct {
	notes []noteCall
}

func (f *fakeVoices) AssignNote(note uint8, on bool, velocity uint16, flags uint8) {
	f.notes = append(f.notes, noteCall{note, on, velocity, flags})
}

type fixture struct {
	cfg      *MIDIConfig
	state    *State
	store    *fakeStore
	foreign  *fakeForeign
	settings *fakeSettings
	ui       *fakeUI
	voices   *fakeVoices
}

func newFixture() *fixture {
	cfg := DefaultMIDIConfig()
	return &fixture{
		cfg:      cfg,
		state:    NewState(cfg),
		store:    newFakeStore(),
		foreign:  &fakeForeign{},
		settings: &fakeSettings{},
		ui:       &fakeUI{},
		voices:   &fakeVoices{},
	}
}

func (f *fixture) collaborators() Collaborators {
	return Collaborators{
		Store:    f.store,
		Foreign:  f.foreign,
		Settings: f.settings,
		UI:       f.ui,
		Voices:   f.voices,
	}
}

// recorder captures parser callbacks
type recorder struct {
	events []string
	sysex  []sysexCall
}

type sysexCall struct {
	count uint16
	bytes [3]byte
}

func (r *recorder) NoteOn(channel, note, velocity uint8) {
	r.events = append(r.events, "on "+itoa(int(channel))+" "+itoa(int(note))+" "+itoa(int(velocity)))
}

func (r *recorder) NoteOff(channel, note, velocity uint8) {
	r.events = append(r.events, "off "+itoa(int(channel))+" "+itoa(int(note))+" "+itoa(int(velocity)))
}

func (r *recorder) ControlChange(channel, control, value uint8) {
	r.events = append(r.events, "cc "+itoa(int(channel))+" "+itoa(int(control))+" "+itoa(int(value)))
}

func (r *recorder) ProgramChange(channel, program uint8) {
	r.events = append(r.events, "pc "+itoa(int(channel))+" "+itoa(int(program)))
}

func (r *recorder) SysexBytes(count uint16, b0, b1, b2 byte) {
	r.sysex = append(r.sysex, sysexCall{count, [3]byte{b0, b1, b2}})
}
