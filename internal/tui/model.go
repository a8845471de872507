package tui

import (
	"bytes"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/drone/internal/clipboard"
	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/preset"
	"github.com/Danondso/drone/internal/store"
)

// Controller is the playback surface the TUI drives. *preset.Player
// satisfies it.
type Controller interface {
	TogglePreset(pr preset.Preset) error
	PlaySettings(settings noise.Settings) error
	BurstPreset(pr preset.Preset) error
	StopPlayback()
	PresetDeleted(id int64)
	Playing() (int64, bool)
	Phase() preset.Phase
	Close()
}

// Library is the preset storage the TUI deletes from. *store.Store
// satisfies it. A nil Library disables deletion.
type Library interface {
	DeletePreset(id int64) error
	Presets() []store.PresetRecord
}

// Messages sent through the Bubble Tea update loop.

// PlayingChangedMsg mirrors a preset.Listener notification.
type PlayingChangedMsg struct {
	ID      int64
	Playing bool
}

// HotkeyPressedMsg is sent when the global toggle key is pressed.
type HotkeyPressedMsg struct{}

// PresetsLoadedMsg replaces the preset list.
type PresetsLoadedMsg struct {
	Presets []preset.Preset
}

type actionDoneMsg struct {
	Status string
	Err    error
}

type presetDeletedMsg struct {
	Name    string
	Presets []preset.Preset
}

type errorTimeoutMsg struct{}

type phaseTickMsg struct {
	gen int
}

// DebugEntry is a structured debug log entry.
type DebugEntry struct {
	Time     string // e.g. "11:27:53"
	Category string // e.g. "engine", "burst", "store"
	Message  string
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const maxDebugLines = 50

// Model is the Bubble Tea model for the drone TUI.
type Model struct {
	Config     *config.Config
	ConfigPath string
	Player     Controller
	Library    Library
	Presets    []preset.Preset
	Cursor     int

	PlayingID  int64
	Playing    bool
	Phase      preset.Phase
	Status     string
	LastError  string
	ThemeName  string
	HotkeyName string
	DeviceName string

	Logger       *log.Logger
	DebugMode    bool
	DebugEntries []DebugEntry

	tickGen int
}

// NewModel creates a new TUI model and applies the configured theme.
func NewModel(cfg *config.Config, cfgPath string, player Controller, presets []preset.Preset, deviceName string, logger *log.Logger, debug bool) Model {
	RegisterCustomThemes(cfg.CustomThemes)
	theme := LoadTheme(cfg.Theme)
	applyTheme(theme)

	hotkeyName := ""
	if cfg.Hotkey.Enabled {
		hotkeyName = cfg.Hotkey.Key
	}
	return Model{
		Config:     cfg,
		ConfigPath: cfgPath,
		Player:     player,
		Presets:    presets,
		ThemeName:  theme.Name,
		HotkeyName: hotkeyName,
		DeviceName: deviceName,
		Logger:     logger,
		DebugMode:  debug,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and transitions state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case HotkeyPressedMsg:
		if pr, ok := m.selected(); ok {
			return m, m.toggleCmd(pr)
		}

	case PlayingChangedMsg:
		if msg.Playing {
			wasPlaying := m.Playing
			m.PlayingID = msg.ID
			m.Playing = true
			m.Phase = preset.PhasePlaying
			if wasPlaying {
				return m, nil
			}
			// Ticks from an earlier chain that are still in flight are
			// dropped by generation.
			m.tickGen++
			return m, phaseTickCmd(m.tickGen)
		}
		if m.Playing && m.PlayingID == msg.ID {
			m.Playing = false
			m.Phase = preset.PhaseStopped
		}

	case phaseTickMsg:
		if msg.gen != m.tickGen || !m.Playing || m.Player == nil {
			return m, nil
		}
		// Notifications arrive on separate goroutines and can be reordered,
		// so the player is the source of truth here.
		id, ok := m.Player.Playing()
		if !ok {
			m.Playing = false
			m.Phase = preset.PhaseStopped
			return m, nil
		}
		m.PlayingID = id
		m.Phase = m.Player.Phase()
		return m, phaseTickCmd(m.tickGen)

	case PresetsLoadedMsg:
		m.Presets = msg.Presets
		if m.Cursor >= len(m.Presets) {
			m.Cursor = max(len(m.Presets)-1, 0)
		}

	case presetDeletedMsg:
		m.Presets = msg.Presets
		if m.Cursor >= len(m.Presets) {
			m.Cursor = max(len(m.Presets)-1, 0)
		}
		m.LastError = ""
		m.Status = "Deleted " + msg.Name

	case actionDoneMsg:
		if msg.Err != nil {
			m.LastError = msg.Err.Error()
			m.Logger.Printf("tui: %v", msg.Err)
			return m, scheduleErrorTimeout()
		}
		m.LastError = ""
		m.Status = msg.Status

	case errorTimeoutMsg:
		m.LastError = ""

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Sequence(m.closeCmd(), tea.Quit)
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Presets)-1 {
			m.Cursor++
		}
	case "enter", " ":
		if pr, ok := m.selected(); ok {
			return m, m.toggleCmd(pr)
		}
	case "b":
		if pr, ok := m.selected(); ok {
			return m, m.burstCmd(pr)
		}
	case "s":
		return m, m.stopCmd()
	case "1", "2", "3":
		level := int(msg.String()[0] - '1')
		return m, m.quickStartCmd(level)
	case "y":
		if pr, ok := m.selected(); ok {
			return m, copyPresetCmd(pr)
		}
	case "x":
		if pr, ok := m.selected(); ok && m.Library != nil {
			return m, m.deleteCmd(pr)
		}
	case "t":
		next := NextTheme(m.ThemeName)
		applyTheme(next)
		m.ThemeName = next.Name
		m.Config.Theme = next.Name
		return m, m.saveConfigCmd()
	}
	return m, nil
}

func (m Model) selected() (preset.Preset, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Presets) {
		return preset.Preset{}, false
	}
	return m.Presets[m.Cursor], true
}

// Player calls block on engine teardown and notify listeners that send
// back into the program, so they run as commands rather than in Update.

func (m Model) toggleCmd(pr preset.Preset) tea.Cmd {
	player := m.Player
	return func() tea.Msg {
		if err := player.TogglePreset(pr); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("play %s: %w", pr.Name, err)}
		}
		if id, ok := player.Playing(); ok && id == pr.ID {
			return actionDoneMsg{Status: "Playing " + pr.Name}
		}
		return actionDoneMsg{Status: "Stopped " + pr.Name}
	}
}

func (m Model) burstCmd(pr preset.Preset) tea.Cmd {
	player := m.Player
	return func() tea.Msg {
		if err := player.BurstPreset(pr); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("burst %s: %w", pr.Name, err)}
		}
		return actionDoneMsg{Status: fmt.Sprintf("Burst %s for %.1fs", pr.Name, pr.BurstSeconds)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	player := m.Player
	return func() tea.Msg {
		player.StopPlayback()
		return actionDoneMsg{Status: "Stopped"}
	}
}

var levelNames = []string{"low", "medium", "high"}

func (m Model) quickStartCmd(level int) tea.Cmd {
	player := m.Player
	settings := m.Config.Noise.QuickStart(level)
	return func() tea.Msg {
		if err := player.PlaySettings(settings); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("quick start: %w", err)}
		}
		return actionDoneMsg{Status: fmt.Sprintf("Quick start %s (%s)", levelNames[level], settings)}
	}
}

func (m Model) deleteCmd(pr preset.Preset) tea.Cmd {
	player, lib := m.Player, m.Library
	return func() tea.Msg {
		if err := lib.DeletePreset(pr.ID); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("delete %s: %w", pr.Name, err)}
		}
		player.PresetDeleted(pr.ID)
		return presetDeletedMsg{Name: pr.Name, Presets: preset.FromRecords(lib.Presets())}
	}
}

func (m Model) closeCmd() tea.Cmd {
	player := m.Player
	return func() tea.Msg {
		if player != nil {
			player.Close()
		}
		return nil
	}
}

func (m Model) saveConfigCmd() tea.Cmd {
	if m.ConfigPath == "" {
		return nil
	}
	path, cfg := m.ConfigPath, *m.Config
	return func() tea.Msg {
		if err := config.Save(path, &cfg); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("save theme: %w", err)}
		}
		return actionDoneMsg{Status: "Theme: " + cfg.Theme}
	}
}

func copyPresetCmd(pr preset.Preset) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := store.ExportPresets(&buf, []store.PresetRecord{pr.Record()}); err != nil {
			return actionDoneMsg{Err: err}
		}
		if err := clipboard.CopyText(buf.String()); err != nil {
			return actionDoneMsg{Err: fmt.Errorf("copy preset: %w", err)}
		}
		return actionDoneMsg{Status: "Copied " + pr.Name}
	}
}

func scheduleErrorTimeout() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return errorTimeoutMsg{}
	})
}

const phaseTickInterval = 250 * time.Millisecond

func phaseTickCmd(gen int) tea.Cmd {
	return tea.Tick(phaseTickInterval, func(time.Time) tea.Msg {
		return phaseTickMsg{gen: gen}
	})
}
