package tui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/preset"
	"github.com/Danondso/drone/internal/store"
)

// mockController implements Controller for testing.
type mockController struct {
	mu       sync.Mutex
	calls    []string
	playing  int64
	active   bool
	phase    preset.Phase
	playErr  error
	settings noise.Settings
	closed   bool
}

func (c *mockController) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *mockController) TogglePreset(pr preset.Preset) error {
	c.record(fmt.Sprintf("toggle %d", pr.ID))
	if c.playErr != nil {
		return c.playErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && c.playing == pr.ID {
		c.active = false
		return nil
	}
	c.playing, c.active = pr.ID, true
	return nil
}

func (c *mockController) PlaySettings(settings noise.Settings) error {
	c.record("quick")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	c.playing, c.active = preset.QuickStartID, true
	return nil
}

func (c *mockController) BurstPreset(pr preset.Preset) error {
	c.record(fmt.Sprintf("burst %d", pr.ID))
	return c.playErr
}

func (c *mockController) StopPlayback() {
	c.record("stop")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

func (c *mockController) PresetDeleted(id int64) {
	c.record(fmt.Sprintf("deleted %d", id))
}

func (c *mockController) Playing() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing, c.active
}

func (c *mockController) Phase() preset.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *mockController) Close() {
	c.record("close")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *mockController) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// mockLibrary implements Library for testing.
type mockLibrary struct {
	records []store.PresetRecord
}

func (l *mockLibrary) DeletePreset(id int64) error {
	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (l *mockLibrary) Presets() []store.PresetRecord {
	return l.records
}

func testPresets() []preset.Preset {
	return []preset.Preset{
		{ID: 2, Name: "bursts", Gain: 0.8, SampleRate: 44100, BufferSize: 1024, Color: noise.Pink, BurstSeconds: 2, BurstIntervalSeconds: 4, AutoBurst: true},
		{ID: 1, Name: "static", Gain: 0.5, SampleRate: 44100, BufferSize: 1024, Color: noise.White},
	}
}

func newTestModel() (Model, *mockController) {
	cfg := config.Default()
	ctl := &mockController{}
	return NewModel(cfg, "", ctl, testPresets(), "Speakers", log.New(io.Discard, "", 0), false), ctl
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes a command and returns its message.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestInitialState(t *testing.T) {
	m, _ := newTestModel()
	if m.Playing {
		t.Error("expected nothing playing")
	}
	if m.Cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.Cursor)
	}
	if m.ThemeName != "Midnight" {
		t.Errorf("expected Midnight theme, got %q", m.ThemeName)
	}
}

func TestCursorMovementClamps(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(key("up"))
	m = updated.(Model)
	if m.Cursor != 0 {
		t.Errorf("expected cursor to stay at 0, got %d", m.Cursor)
	}
	for range 3 {
		updated, _ = m.Update(key("j"))
		m = updated.(Model)
	}
	if m.Cursor != 1 {
		t.Errorf("expected cursor clamped at 1, got %d", m.Cursor)
	}
}

func TestEnterTogglesSelectedPreset(t *testing.T) {
	m, ctl := newTestModel()
	updated, _ := m.Update(key("down"))
	m = updated.(Model)

	_, cmd := m.Update(key("enter"))
	msg := run(t, cmd)
	done, ok := msg.(actionDoneMsg)
	if !ok {
		t.Fatalf("expected actionDoneMsg, got %T", msg)
	}
	if done.Status != "Playing static" {
		t.Errorf("expected 'Playing static', got %q", done.Status)
	}
	if calls := ctl.Calls(); len(calls) != 1 || calls[0] != "toggle 1" {
		t.Errorf("expected [toggle 1], got %v", calls)
	}

	_, cmd = m.Update(key("enter"))
	done = run(t, cmd).(actionDoneMsg)
	if done.Status != "Stopped static" {
		t.Errorf("expected 'Stopped static', got %q", done.Status)
	}
}

func TestToggleErrorShowsBadge(t *testing.T) {
	m, ctl := newTestModel()
	ctl.playErr = errors.New("no device")

	_, cmd := m.Update(key("enter"))
	updated, timeout := m.Update(run(t, cmd))
	m = updated.(Model)
	if !strings.Contains(m.LastError, "no device") {
		t.Errorf("expected error to mention 'no device', got %q", m.LastError)
	}
	if timeout == nil {
		t.Error("expected error timeout command")
	}
	if !strings.Contains(m.View(), "Error") {
		t.Error("expected view to show error badge")
	}

	updated, _ = m.Update(errorTimeoutMsg{})
	m = updated.(Model)
	if m.LastError != "" {
		t.Errorf("expected error cleared, got %q", m.LastError)
	}
}

func TestQuickStartKeys(t *testing.T) {
	m, ctl := newTestModel()
	_, cmd := m.Update(key("3"))
	done := run(t, cmd).(actionDoneMsg)
	if !strings.HasPrefix(done.Status, "Quick start high") {
		t.Errorf("expected high quick start, got %q", done.Status)
	}
	if ctl.settings.Gain != m.Config.Noise.Levels[2] {
		t.Errorf("expected gain %.2f, got %.2f", m.Config.Noise.Levels[2], ctl.settings.Gain)
	}
}

func TestBurstAndStopKeys(t *testing.T) {
	m, ctl := newTestModel()
	_, cmd := m.Update(key("b"))
	run(t, cmd)
	_, cmd = m.Update(key("s"))
	run(t, cmd)

	calls := ctl.Calls()
	if len(calls) != 2 || calls[0] != "burst 2" || calls[1] != "stop" {
		t.Errorf("expected [burst 2 stop], got %v", calls)
	}
}

func TestHotkeyTogglesSelected(t *testing.T) {
	m, ctl := newTestModel()
	_, cmd := m.Update(HotkeyPressedMsg{})
	run(t, cmd)
	if calls := ctl.Calls(); len(calls) != 1 || calls[0] != "toggle 2" {
		t.Errorf("expected [toggle 2], got %v", calls)
	}
}

func TestHotkeyWithNoPresetsIsNoop(t *testing.T) {
	m, _ := newTestModel()
	m.Presets = nil
	if _, cmd := m.Update(HotkeyPressedMsg{}); cmd != nil {
		t.Error("expected no command without presets")
	}
}

func TestPlayingChangedTransitions(t *testing.T) {
	m, _ := newTestModel()
	updated, cmd := m.Update(PlayingChangedMsg{ID: 2, Playing: true})
	m = updated.(Model)
	if !m.Playing || m.PlayingID != 2 {
		t.Errorf("expected playing 2, got %v %d", m.Playing, m.PlayingID)
	}
	if cmd == nil {
		t.Error("expected phase tick command")
	}
	if !strings.Contains(m.View(), "Playing bursts") {
		t.Error("expected view to show 'Playing bursts'")
	}

	// A stale stop for another preset is ignored.
	updated, _ = m.Update(PlayingChangedMsg{ID: 1, Playing: false})
	m = updated.(Model)
	if !m.Playing {
		t.Error("expected stale stop to be ignored")
	}

	updated, _ = m.Update(PlayingChangedMsg{ID: 2, Playing: false})
	m = updated.(Model)
	if m.Playing {
		t.Error("expected playback stopped")
	}
	if !strings.Contains(m.View(), "Stopped") {
		t.Error("expected view to show 'Stopped'")
	}
}

func TestPhaseTickFollowsPlayer(t *testing.T) {
	m, ctl := newTestModel()
	ctl.playing, ctl.active, ctl.phase = 2, true, preset.PhaseSilent
	updated, _ := m.Update(PlayingChangedMsg{ID: 2, Playing: true})
	m = updated.(Model)

	updated, cmd := m.Update(phaseTickMsg{gen: m.tickGen})
	m = updated.(Model)
	if m.Phase != preset.PhaseSilent {
		t.Errorf("expected silent phase, got %s", m.Phase)
	}
	if cmd == nil {
		t.Error("expected another tick while playing")
	}
	if !strings.Contains(m.View(), "between bursts") {
		t.Error("expected view to show silent phase")
	}

	ctl.active = false
	updated, cmd = m.Update(phaseTickMsg{gen: m.tickGen})
	m = updated.(Model)
	if m.Playing {
		t.Error("expected tick to reconcile with stopped player")
	}
	if cmd != nil {
		t.Error("expected ticks to stop once stopped")
	}
}

func TestSwitchingPresetsKeepsOneTickChain(t *testing.T) {
	m, ctl := newTestModel()
	ctl.playing, ctl.active = 2, true
	updated, first := m.Update(PlayingChangedMsg{ID: 2, Playing: true})
	m = updated.(Model)
	if first == nil {
		t.Fatal("expected a tick chain to start")
	}

	ctl.playing = 1
	updated, second := m.Update(PlayingChangedMsg{ID: 1, Playing: true})
	m = updated.(Model)
	if second != nil {
		t.Error("expected no second tick chain while one is running")
	}
	if m.PlayingID != 1 {
		t.Errorf("expected playing 1, got %d", m.PlayingID)
	}
}

func TestStaleTickIsDropped(t *testing.T) {
	m, ctl := newTestModel()
	ctl.playing, ctl.active = 2, true
	updated, _ := m.Update(PlayingChangedMsg{ID: 2, Playing: true})
	m = updated.(Model)
	stale := m.tickGen

	// Stop and restart before the first chain's tick fires.
	updated, _ = m.Update(PlayingChangedMsg{ID: 2, Playing: false})
	m = updated.(Model)
	updated, cmd := m.Update(PlayingChangedMsg{ID: 2, Playing: true})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a new tick chain after restart")
	}

	if _, cmd := m.Update(phaseTickMsg{gen: stale}); cmd != nil {
		t.Error("expected tick from the old chain to end it")
	}
	if _, cmd := m.Update(phaseTickMsg{gen: m.tickGen}); cmd == nil {
		t.Error("expected the current chain to continue")
	}
}

func TestQuitClosesPlayer(t *testing.T) {
	m, ctl := newTestModel()
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatal("expected quit command")
	}
	m.closeCmd()()
	if !ctl.closed {
		t.Error("expected player closed on quit")
	}
}

func TestDeleteKeyRemovesPreset(t *testing.T) {
	m, ctl := newTestModel()
	lib := &mockLibrary{}
	for _, pr := range m.Presets {
		lib.records = append(lib.records, pr.Record())
	}
	m.Library = lib
	m.Cursor = 1

	_, cmd := m.Update(key("x"))
	msg := run(t, cmd)
	updated, _ := m.Update(msg)
	m = updated.(Model)

	if len(m.Presets) != 1 || m.Presets[0].ID != 2 {
		t.Errorf("expected only preset 2 left, got %v", m.Presets)
	}
	if m.Cursor != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", m.Cursor)
	}
	if m.Status != "Deleted static" {
		t.Errorf("expected delete status, got %q", m.Status)
	}
	calls := ctl.Calls()
	if len(calls) != 1 || calls[0] != "deleted 1" {
		t.Errorf("expected player notified of deletion, got %v", calls)
	}
}

func TestDeleteKeyWithoutLibraryIsNoop(t *testing.T) {
	m, _ := newTestModel()
	if _, cmd := m.Update(key("x")); cmd != nil {
		t.Error("expected no command without a library")
	}
}

func TestThemeCycle(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(key("t"))
	m = updated.(Model)
	if m.ThemeName != "Moss" {
		t.Errorf("expected Moss, got %q", m.ThemeName)
	}
	if m.Config.Theme != "Moss" {
		t.Errorf("expected config theme updated, got %q", m.Config.Theme)
	}
	applyTheme(LoadTheme(DefaultTheme))
}

func TestLoadThemeFallsBack(t *testing.T) {
	if got := LoadTheme("no-such-theme"); got.Name != "Midnight" {
		t.Errorf("expected Midnight fallback, got %q", got.Name)
	}
	if got := LoadTheme("EMBER"); got.Name != "Ember" {
		t.Errorf("expected case-insensitive lookup, got %q", got.Name)
	}
	if got := NextTheme("mono"); got.Name != themes[themeOrder[0]].Name {
		t.Errorf("expected cycle to wrap, got %q", got.Name)
	}
}

func TestCustomThemeFillsMissingColors(t *testing.T) {
	t.Cleanup(func() {
		delete(themes, "harbor")
		themeOrder = append([]string(nil), builtinOrder...)
	})
	RegisterCustomThemes([]config.CustomTheme{
		{Name: "Harbor", Accent: "#0077B6"},
		{Name: "moss", Accent: "#000000"},
		{Name: " "},
	})
	harbor := LoadTheme("harbor")
	if harbor.Name != "Harbor" || harbor.Accent != "#0077B6" {
		t.Errorf("expected registered harbor theme, got %+v", harbor)
	}
	if harbor.Background != themes[DefaultTheme].Background {
		t.Errorf("expected default background, got %q", harbor.Background)
	}
	if LoadTheme("moss").Accent == "#000000" {
		t.Error("expected built-in theme not to be overridden")
	}
	if n := len(ThemeNames()); n != len(builtinOrder)+1 {
		t.Errorf("expected one custom theme in the cycle, got %v", ThemeNames())
	}
}

func TestPresetsLoadedClampsCursor(t *testing.T) {
	m, _ := newTestModel()
	m.Cursor = 1
	updated, _ := m.Update(PresetsLoadedMsg{Presets: testPresets()[:1]})
	m = updated.(Model)
	if m.Cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.Cursor)
	}
}

func TestViewContainsTitleAndPresets(t *testing.T) {
	m, _ := newTestModel()
	view := m.View()
	for _, want := range []string{"DRONE", "bursts", "static", "pink", "burst 2.0s / 4.0s", "Speakers"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestViewEmptyLibrary(t *testing.T) {
	m, _ := newTestModel()
	m.Presets = nil
	if !strings.Contains(m.View(), "no presets") {
		t.Error("expected empty library hint")
	}
}

func TestViewQuickStartBadge(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(PlayingChangedMsg{ID: preset.QuickStartID, Playing: true})
	m = updated.(Model)
	if !strings.Contains(m.View(), "quick start") {
		t.Error("expected quick start badge")
	}
}

func TestDebugLogMsgAddsEntry(t *testing.T) {
	m, _ := newTestModel()
	entry := DebugEntry{Time: "11:00:00", Category: "engine", Message: "hello"}
	updated, _ := m.Update(DebugLogMsg{Entry: entry})
	model := updated.(Model)
	if len(model.DebugEntries) != 1 {
		t.Fatalf("expected 1 debug entry, got %d", len(model.DebugEntries))
	}
	if model.DebugEntries[0].Message != "hello" {
		t.Errorf("expected 'hello', got %q", model.DebugEntries[0].Message)
	}
}

func TestDebugLogTruncatesToMax(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < maxDebugLines+10; i++ {
		entry := DebugEntry{Time: "11:00:00", Category: "debug", Message: fmt.Sprintf("line %d", i)}
		updated, _ := m.Update(DebugLogMsg{Entry: entry})
		m = updated.(Model)
	}
	if len(m.DebugEntries) != maxDebugLines {
		t.Errorf("expected %d debug entries, got %d", maxDebugLines, len(m.DebugEntries))
	}
	if m.DebugEntries[0].Message != "line 10" {
		t.Errorf("expected oldest message to be 'line 10', got %q", m.DebugEntries[0].Message)
	}
}

func TestViewShowsDebugPanel(t *testing.T) {
	m, _ := newTestModel()
	entry := DebugEntry{Time: "11:00:00", Category: "engine", Message: "test message"}
	updated, _ := m.Update(DebugLogMsg{Entry: entry})
	view := updated.(Model).View()
	if !strings.Contains(view, "Debug") {
		t.Error("expected view to contain 'Debug' panel title")
	}
	if !strings.Contains(view, "test message") {
		t.Error("expected view to contain debug message")
	}
}

func TestViewHidesDebugPanelWhenEmpty(t *testing.T) {
	m, _ := newTestModel()
	if strings.Contains(m.View(), "Debug") {
		t.Error("expected view to NOT contain 'Debug' panel when no debug lines")
	}
}

func TestParseLineStructured(t *testing.T) {
	entry := parseLine("[DEBUG] 11:27:53.777842 engine: session 42 started")
	if entry.Time != "11:27:53.777842" {
		t.Errorf("expected time '11:27:53.777842', got %q", entry.Time)
	}
	if entry.Category != "engine" {
		t.Errorf("expected category 'engine', got %q", entry.Category)
	}
	if entry.Message != "session 42 started" {
		t.Errorf("expected message 'session 42 started', got %q", entry.Message)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		msg     string
		wantCat string
		wantMsg string
	}{
		{"burst: stopped 3", "burst", "stopped 3"},
		{"output: portaudio stream opened", "audio", "portaudio stream opened"},
		{"store: inserted preset 4", "store", "inserted preset 4"},
		{"unknown: thing", "debug", "unknown: thing"},
		{"no prefix here", "debug", "no prefix here"},
		{"two words: not a prefix", "debug", "two words: not a prefix"},
	}
	for _, tt := range tests {
		cat, msg := inferCategory(tt.msg)
		if cat != tt.wantCat || msg != tt.wantMsg {
			t.Errorf("inferCategory(%q) = (%q, %q), want (%q, %q)", tt.msg, cat, msg, tt.wantCat, tt.wantMsg)
		}
	}
}
