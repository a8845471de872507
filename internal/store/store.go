// Package store persists noise presets and saved commands in a TOML file.
package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// ErrNotFound is returned when no row has the requested id or name.
var ErrNotFound = errors.New("not found")

// PresetRecord is a persisted noise preset. Fades are stored in
// milliseconds, burst timings in seconds.
type PresetRecord struct {
	ID                   int64   `toml:"id"`
	Name                 string  `toml:"name"`
	Gain                 float64 `toml:"gain"`
	SampleRate           int     `toml:"sample_rate"`
	BufferSize           int     `toml:"buffer_size"`
	NoiseColor           string  `toml:"noise_color"`
	FadeInMs             int64   `toml:"fade_in_ms"`
	FadeOutMs            int64   `toml:"fade_out_ms"`
	BurstSeconds         float64 `toml:"burst_seconds"`
	BurstIntervalSeconds float64 `toml:"burst_interval_seconds"`
	AutoBurst            bool    `toml:"auto_burst"`
}

// CommandRecord is a persisted spoken command.
type CommandRecord struct {
	ID         int64   `toml:"id"`
	Text       string  `toml:"text"`
	Engine     string  `toml:"engine"`
	Voice      string  `toml:"voice"`
	Pitch      float64 `toml:"pitch"`
	SpeechRate float64 `toml:"speech_rate"`
	Volume     float64 `toml:"volume"`
	Pan        float64 `toml:"pan"`
}

// NewCommand returns a CommandRecord with neutral voice parameters.
func NewCommand(text string) CommandRecord {
	return CommandRecord{Text: text, Pitch: 1, SpeechRate: 1, Volume: 1, Pan: 0}
}

type library struct {
	NextPresetID  int64           `toml:"next_preset_id"`
	NextCommandID int64           `toml:"next_command_id"`
	Presets       []PresetRecord  `toml:"noise_presets"`
	Commands      []CommandRecord `toml:"commands"`
}

// Store is a handle on one library file. It is safe for concurrent use.
type Store struct {
	path   string
	logger *log.Logger

	mu  sync.Mutex
	lib library
}

// Open loads the library at path. A missing file yields an empty library,
// or the starter presets and commands when seed is true.
func Open(path string, seed bool, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{path: path, logger: logger}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		s.lib = library{NextPresetID: 1, NextCommandID: 1}
		if !seed {
			return s, nil
		}
		s.seedLocked()
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
		logger.Printf("store: seeded new library at %s", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat library: %w", err)
	}

	if _, err := toml.DecodeFile(path, &s.lib); err != nil {
		return nil, fmt.Errorf("decode library %s: %w", path, err)
	}
	s.repairCounters()
	logger.Printf("store: loaded %d presets, %d commands from %s", len(s.lib.Presets), len(s.lib.Commands), path)
	return s, nil
}

// repairCounters keeps the id counters ahead of every stored id, so a
// hand-edited file cannot cause duplicate ids.
func (s *Store) repairCounters() {
	for _, p := range s.lib.Presets {
		s.lib.NextPresetID = max(s.lib.NextPresetID, p.ID+1)
	}
	for _, c := range s.lib.Commands {
		s.lib.NextCommandID = max(s.lib.NextCommandID, c.ID+1)
	}
	s.lib.NextPresetID = max(s.lib.NextPresetID, 1)
	s.lib.NextCommandID = max(s.lib.NextCommandID, 1)
}

// Path returns the library file path.
func (s *Store) Path() string {
	return s.path
}

// saveLocked writes the library atomically: data goes to a temporary file
// that is renamed into place.
func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".drone-library-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp library: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(s.lib); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode library: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close library: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename library: %w", err)
	}
	return nil
}

// mutate applies fn to the library and saves it. The in-memory library is
// restored if fn or the save fails.
func (s *Store) mutate(fn func(lib *library) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := library{
		NextPresetID:  s.lib.NextPresetID,
		NextCommandID: s.lib.NextCommandID,
		Presets:       slices.Clone(s.lib.Presets),
		Commands:      slices.Clone(s.lib.Commands),
	}
	if err := fn(&s.lib); err != nil {
		s.lib = backup
		return err
	}
	if err := s.saveLocked(); err != nil {
		s.lib = backup
		return err
	}
	return nil
}

// Presets returns all presets, newest first.
func (s *Store) Presets() []PresetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.lib.Presets)
	slices.SortFunc(out, func(a, b PresetRecord) int { return cmpDesc(a.ID, b.ID) })
	return out
}

// Preset returns the preset with the given id.
func (s *Store) Preset(id int64) (PresetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.presetIndex(id)
	if i < 0 {
		return PresetRecord{}, fmt.Errorf("preset %d: %w", id, ErrNotFound)
	}
	return s.lib.Presets[i], nil
}

// PresetByName returns the newest preset whose name matches, ignoring case.
func (s *Store) PresetByName(name string) (PresetRecord, error) {
	for _, p := range s.Presets() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return PresetRecord{}, fmt.Errorf("preset %q: %w", name, ErrNotFound)
}

// InsertPreset stores p under a newly generated id and returns the id.
func (s *Store) InsertPreset(p PresetRecord) (int64, error) {
	if strings.TrimSpace(p.Name) == "" {
		return 0, errors.New("preset name must not be blank")
	}
	var id int64
	err := s.mutate(func(lib *library) error {
		id = lib.NextPresetID
		lib.NextPresetID++
		p.ID = id
		lib.Presets = append(lib.Presets, p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Printf("store: inserted preset %d %q", id, p.Name)
	return id, nil
}

// UpdatePreset replaces the stored preset with p.ID.
func (s *Store) UpdatePreset(p PresetRecord) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name must not be blank")
	}
	err := s.mutate(func(lib *library) error {
		i := s.presetIndex(p.ID)
		if i < 0 {
			return fmt.Errorf("preset %d: %w", p.ID, ErrNotFound)
		}
		lib.Presets[i] = p
		return nil
	})
	if err == nil {
		s.logger.Printf("store: updated preset %d %q", p.ID, p.Name)
	}
	return err
}

// DeletePreset removes the preset with the given id.
func (s *Store) DeletePreset(id int64) error {
	err := s.mutate(func(lib *library) error {
		i := s.presetIndex(id)
		if i < 0 {
			return fmt.Errorf("preset %d: %w", id, ErrNotFound)
		}
		lib.Presets = slices.Delete(lib.Presets, i, i+1)
		return nil
	})
	if err == nil {
		s.logger.Printf("store: deleted preset %d", id)
	}
	return err
}

// DeleteAllPresets removes every preset.
func (s *Store) DeleteAllPresets() error {
	return s.mutate(func(lib *library) error {
		lib.Presets = nil
		return nil
	})
}

func (s *Store) presetIndex(id int64) int {
	return slices.IndexFunc(s.lib.Presets, func(p PresetRecord) bool { return p.ID == id })
}

// Commands returns all saved commands, newest first.
func (s *Store) Commands() []CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.lib.Commands)
	slices.SortFunc(out, func(a, b CommandRecord) int { return cmpDesc(a.ID, b.ID) })
	return out
}

// Command returns the command with the given id.
func (s *Store) Command(id int64) (CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.commandIndex(id)
	if i < 0 {
		return CommandRecord{}, fmt.Errorf("command %d: %w", id, ErrNotFound)
	}
	return s.lib.Commands[i], nil
}

// InsertCommand stores c under a newly generated id and returns the id.
func (s *Store) InsertCommand(c CommandRecord) (int64, error) {
	if strings.TrimSpace(c.Text) == "" {
		return 0, errors.New("command text must not be blank")
	}
	var id int64
	err := s.mutate(func(lib *library) error {
		id = lib.NextCommandID
		lib.NextCommandID++
		c.ID = id
		lib.Commands = append(lib.Commands, c)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Printf("store: inserted command %d", id)
	return id, nil
}

// UpdateCommand replaces the stored command with c.ID.
func (s *Store) UpdateCommand(c CommandRecord) error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("command text must not be blank")
	}
	return s.mutate(func(lib *library) error {
		i := s.commandIndex(c.ID)
		if i < 0 {
			return fmt.Errorf("command %d: %w", c.ID, ErrNotFound)
		}
		lib.Commands[i] = c
		return nil
	})
}

// DeleteCommand removes the command with the given id.
func (s *Store) DeleteCommand(id int64) error {
	return s.mutate(func(lib *library) error {
		i := s.commandIndex(id)
		if i < 0 {
			return fmt.Errorf("command %d: %w", id, ErrNotFound)
		}
		lib.Commands = slices.Delete(lib.Commands, i, i+1)
		return nil
	})
}

// DeleteAllCommands removes every command.
func (s *Store) DeleteAllCommands() error {
	return s.mutate(func(lib *library) error {
		lib.Commands = nil
		return nil
	})
}

func (s *Store) commandIndex(id int64) int {
	return slices.IndexFunc(s.lib.Commands, func(c CommandRecord) bool { return c.ID == id })
}

func cmpDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
