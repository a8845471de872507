package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/drone/internal/preset"
)

// Styles, set by applyTheme.
var (
	titleStyle, borderStyle, labelStyle, detailStyle lipgloss.Style
	cursorStyle, hotkeyStyle, helpStyle, bodyStyle   lipgloss.Style

	stoppedBadge, playingBadge, silentBadge, errorBadge lipgloss.Style
	statusOkStyle, statusBadStyle                       lipgloss.Style

	debugTitleStyle, debugHeaderStyle, debugRuleStyle, debugTimeStyle lipgloss.Style
	debugMsgStyle, debugSepStyle, debugCategoryStyle                  lipgloss.Style
)

func init() {
	applyTheme(LoadTheme(DefaultTheme))
}

// panelWidth is the total outer width of the main panel.
// borderStyle has: border (1+1) = 2, padding (2+2) = 4, total chrome = 6.
// Width() in lipgloss sets width including padding but excluding border.
// So we pass panelWidth - 2 (border) to Width(), and the actual text area
// is panelWidth - 6 (border + padding).
const panelWidth = 80
const panelWidthForStyle = panelWidth - 2  // passed to borderStyle.Width()
const panelContentWidth = panelWidth - 6   // actual usable text area

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	// Title, centered with color bars extending to panel edges
	titleText := "  DRONE  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("▓", barLeft) + titleText + strings.Repeat("▓", barRight)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status:  "))
	b.WriteString(m.renderBadge())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Presets:"))
	b.WriteString("\n")
	b.WriteString(m.renderPresets())
	b.WriteString("\n\n")

	if m.Status != "" {
		b.WriteString(detailStyle.Width(panelContentWidth).Render(m.Status))
		b.WriteString("\n")
	}
	if m.HotkeyName != "" {
		keyName := strings.TrimPrefix(m.HotkeyName, "KEY_")
		b.WriteString(hotkeyStyle.Render(fmt.Sprintf("Hotkey: %s (toggle selected)", keyName)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select  enter toggle  b burst  s stop  1/2/3 quick start"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("y copy preset  x delete  t theme  q quit"))

	// Debug sub-panel (inside main panel)
	if m.DebugMode || len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return borderStyle.Width(panelWidthForStyle).Render(b.String())
}

const maxVisiblePresets = 10

func (m Model) renderPresets() string {
	if len(m.Presets) == 0 {
		return helpStyle.Render("(no presets, add one with: drone presets add -name NAME)")
	}

	// Keep the cursor inside a fixed-height window.
	first := 0
	if m.Cursor >= maxVisiblePresets {
		first = m.Cursor - maxVisiblePresets + 1
	}
	last := min(first+maxVisiblePresets, len(m.Presets))

	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		pr := m.Presets[i]
		marker := "  "
		if m.Playing && m.PlayingID == pr.ID {
			marker = "♪ "
		}
		name := truncate(pr.Name, 24)
		if i == m.Cursor {
			lines = append(lines, cursorStyle.Render("▸ "+marker+fmt.Sprintf("%-24s", name))+bodyStyle.Render(" ")+detailStyle.Render(presetDetail(pr)))
		} else {
			lines = append(lines, bodyStyle.Render("  "+marker+fmt.Sprintf("%-24s", name)+" ")+helpStyle.Render(presetDetail(pr)))
		}
	}
	return strings.Join(lines, "\n")
}

func presetDetail(pr preset.Preset) string {
	mode := "continuous"
	if pr.AutoBurst {
		mode = fmt.Sprintf("burst %.1fs / %.1fs", pr.BurstSeconds, pr.BurstIntervalSeconds)
	}
	return fmt.Sprintf("%s  gain %.2f  %s", strings.ToLower(pr.Color.String()), pr.Gain, mode)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

const debugPanelMaxLines = 5

// Debug table column widths. Row content must fit within panelContentWidth.
const (
	colTimeWidth     = 15
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := debugSepStyle.Render(" │ ")
	rule := debugRuleStyle.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder

	// Title + divider
	db.WriteString(debugTitleStyle.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")

	// Header row
	db.WriteString(
		debugHeaderStyle.Width(colTimeWidth).Render("TIME") +
			sep +
			debugHeaderStyle.Width(colCategoryWidth).Render("TYPE") +
			sep +
			debugHeaderStyle.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	// Data rows
	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		timeStr := entry.Time
		if len(timeStr) > colTimeWidth {
			timeStr = timeStr[:colTimeWidth]
		}

		cat := entry.Category
		if len(cat) > colCategoryWidth {
			cat = cat[:colCategoryWidth]
		}

		msg := entry.Message
		if len(msg) > colMsgWidth {
			msg = msg[:colMsgWidth-3] + "..."
		}

		db.WriteString("\n")
		db.WriteString(
			debugTimeStyle.Width(colTimeWidth).Render(timeStr) +
				sep +
				debugCategoryStyle.Width(colCategoryWidth).Render(cat) +
				sep +
				debugMsgStyle.Width(colMsgWidth).Render(msg))
	}

	return db.String()
}

func (m Model) renderStatusBar() string {
	backend := statusOkStyle.Render(m.Config.Audio.Backend)
	device := statusBadStyle.Render("unknown")
	if m.DeviceName != "" {
		device = helpStyle.Render(truncate(m.DeviceName, 32))
	}
	return helpStyle.Render("Backend: ") + backend +
		helpStyle.Render("  Device: ") + device +
		helpStyle.Render("  Theme: "+m.ThemeName)
}

func (m Model) playingName() string {
	if m.PlayingID == preset.QuickStartID {
		return "quick start"
	}
	for _, pr := range m.Presets {
		if pr.ID == m.PlayingID {
			return pr.Name
		}
	}
	return fmt.Sprintf("preset %d", m.PlayingID)
}

func (m Model) renderBadge() string {
	if m.LastError != "" {
		errText := m.LastError
		if len(errText) > 50 {
			errText = errText[:50] + "..."
		}
		return errorBadge.Render(fmt.Sprintf("● Error: %s", errText))
	}
	if !m.Playing {
		return stoppedBadge.Render("● Stopped")
	}
	if m.Phase == preset.PhaseSilent {
		return silentBadge.Render("◌ " + m.playingName() + " (between bursts)")
	}
	return playingBadge.Render("● Playing " + m.playingName())
}
