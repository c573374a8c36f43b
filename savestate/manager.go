package savestate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrBadSlot is returned for slot numbers outside [0, SlotCount).
var ErrBadSlot = errors.New("save slot out of range")

// ErrStorage is returned when a save file cannot be written to disk.
// The machine state itself is unaffected; only persistence failed.
var ErrStorage = errors.New("save storage failed")

const (
	resumeFile = "resume.state"
	sramFile   = "cart.srm"
)

// Manager owns a directory of numbered save-state slots plus the resume
// and SRAM files for one game. Slots are independent: writing one never
// touches another, and every write goes through a temp file and an
// atomic rename so a crash mid-write leaves the previous contents
// intact.
type Manager struct {
	dir   string
	meta  Meta
	slots int

	mu      sync.Mutex
	current int
}

// NewManager creates a manager for dir with the given slot count
// (minimum 1) and core identity.
func NewManager(dir string, slots int, meta Meta) *Manager {
	if slots < 1 {
		slots = 1
	}
	return &Manager{dir: dir, meta: meta, slots: slots}
}

// SlotCount returns the number of slots.
func (m *Manager) SlotCount() int { return m.slots }

// CurrentSlot returns the selected slot.
func (m *Manager) CurrentSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// NextSlot cycles forward and returns the new selection.
func (m *Manager) NextSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = (m.current + 1) % m.slots
	return m.current
}

// PreviousSlot cycles backward and returns the new selection.
func (m *Manager) PreviousSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current--
	if m.current < 0 {
		m.current = m.slots - 1
	}
	return m.current
}

func (m *Manager) checkSlot(slot int) error {
	if slot < 0 || slot >= m.slots {
		return fmt.Errorf("%w: %d (have %d)", ErrBadSlot, slot, m.slots)
	}
	return nil
}

func (m *Manager) slotPath(slot int) string {
	return filepath.Join(m.dir, fmt.Sprintf("state-%d.state", slot))
}

// WriteSlot wraps a core state payload in the envelope and atomically
// replaces the slot's file.
func (m *Manager) WriteSlot(slot int, payload []byte) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	return atomicWrite(m.slotPath(slot), Encode(m.meta, payload))
}

// ReadSlot reads and validates a slot, returning the core state payload.
func (m *Manager) ReadSlot(slot int) ([]byte, error) {
	if err := m.checkSlot(slot); err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(m.slotPath(slot))
	if err != nil {
		return nil, fmt.Errorf("read slot %d: %w", slot, err)
	}
	return Decode(m.meta, blob)
}

// HasSlot reports whether a slot file exists.
func (m *Manager) HasSlot(slot int) bool {
	if m.checkSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(m.slotPath(slot))
	return err == nil
}

// DeleteSlot removes a slot's file. Missing files are not an error.
func (m *Manager) DeleteSlot(slot int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(m.slotPath(slot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteResume atomically replaces the resume-state file.
func (m *Manager) WriteResume(payload []byte) error {
	return atomicWrite(filepath.Join(m.dir, resumeFile), Encode(m.meta, payload))
}

// ReadResume reads and validates the resume-state file.
func (m *Manager) ReadResume() ([]byte, error) {
	blob, err := os.ReadFile(filepath.Join(m.dir, resumeFile))
	if err != nil {
		return nil, err
	}
	return Decode(m.meta, blob)
}

// HasResume reports whether a resume state exists.
func (m *Manager) HasResume() bool {
	_, err := os.Stat(filepath.Join(m.dir, resumeFile))
	return err == nil
}

// WriteSRAM atomically replaces the battery-save file. SRAM is raw core
// data and carries no envelope.
func (m *Manager) WriteSRAM(data []byte) error {
	return atomicWrite(filepath.Join(m.dir, sramFile), data)
}

// ReadSRAM reads the battery-save file.
func (m *Manager) ReadSRAM() ([]byte, error) {
	return os.ReadFile(filepath.Join(m.dir, sramFile))
}

// atomicWrite writes data to a temp file in the target's directory and
// renames it into place, so the target is never partially written.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create save directory: %w", ErrStorage, err)
	}

	// Each writer gets its own temp file. Concurrent writes to the same
	// target (auto-save racing a manual save) must never truncate each
	// other mid-write; last rename wins with a complete file.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	_ = tmp.Chmod(0644)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp file: %w", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp file: %w", ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replace %s: %w", ErrStorage, filepath.Base(path), err)
	}
	return nil
}
