package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/drone/internal/config"
)

// Theme is a TUI palette. Every style is derived from these nine colors.
type Theme struct {
	Name       string
	Accent     lipgloss.Color // title, cursor, playing badge
	Frame      lipgloss.Color // border, labels, hotkey
	Detail     lipgloss.Color // preset parameters
	Alert      lipgloss.Color // errors
	Idle       lipgloss.Color // stopped badge, device ok
	Pause      lipgloss.Color // between-bursts badge, debug categories
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color // help and debug text
}

// DefaultTheme is used for unknown names and fills colors a custom theme
// leaves out.
const DefaultTheme = "midnight"

var themes = map[string]Theme{
	"midnight": {
		Name:   "Midnight",
		Accent: "#FF6AC1", Frame: "#00E5FF", Detail: "#B388FF",
		Alert: "#FF8A80", Idle: "#64FFDA", Pause: "#FFAB40",
		Background: "#1A1A2E", Text: "#E0E0E0", Muted: "#666666",
	},
	"moss": {
		Name:   "Moss",
		Accent: "#A7C080", Frame: "#7FBBB3", Detail: "#D699B6",
		Alert: "#E67E80", Idle: "#83C092", Pause: "#DBBC7F",
		Background: "#2D353B", Text: "#D3C6AA", Muted: "#859289",
	},
	"ember": {
		Name:   "Ember",
		Accent: "#FE8019", Frame: "#83A598", Detail: "#D3869B",
		Alert: "#FB4934", Idle: "#B8BB26", Pause: "#FABD2F",
		Background: "#282828", Text: "#EBDBB2", Muted: "#928374",
	},
	"mono": {
		Name:   "Mono",
		Accent: "#FFFFFF", Frame: "#CCCCCC", Detail: "#AAAAAA",
		Alert: "#FF0000", Idle: "#FFFFFF", Pause: "#CCCCCC",
		Background: "#000000", Text: "#FFFFFF", Muted: "#888888",
	},
}

var builtinOrder = []string{"midnight", "moss", "ember", "mono"}

// themeOrder is the `t` key cycle: built-ins, then custom themes.
var themeOrder = append([]string(nil), builtinOrder...)

// ThemeNames returns the theme keys in cycle order.
func ThemeNames() []string {
	return themeOrder
}

// LoadTheme returns the named theme, ignoring case, or the default one.
func LoadTheme(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) Theme {
	current = strings.ToLower(current)
	for i, name := range themeOrder {
		if name == current {
			return themes[themeOrder[(i+1)%len(themeOrder)]]
		}
	}
	return themes[themeOrder[0]]
}

// RegisterCustomThemes adds config themes to the cycle. Unnamed themes and
// names already taken are skipped.
func RegisterCustomThemes(custom []config.CustomTheme) {
	base := themes[DefaultTheme]
	for _, ct := range custom {
		key := strings.ToLower(strings.TrimSpace(ct.Name))
		if key == "" {
			continue
		}
		if _, taken := themes[key]; taken {
			continue
		}
		themes[key] = Theme{
			Name:       ct.Name,
			Accent:     colorOr(ct.Accent, base.Accent),
			Frame:      colorOr(ct.Frame, base.Frame),
			Detail:     colorOr(ct.Detail, base.Detail),
			Alert:      colorOr(ct.Alert, base.Alert),
			Idle:       colorOr(ct.Idle, base.Idle),
			Pause:      colorOr(ct.Pause, base.Pause),
			Background: colorOr(ct.Background, base.Background),
			Text:       colorOr(ct.Text, base.Text),
			Muted:      colorOr(ct.Muted, base.Muted),
		}
		themeOrder = append(themeOrder, key)
	}
}

func colorOr(hex string, fallback lipgloss.Color) lipgloss.Color {
	if hex == "" {
		return fallback
	}
	return lipgloss.Color(hex)
}

// applyTheme rebuilds every style from t.
func applyTheme(t Theme) {
	base := lipgloss.NewStyle().Background(t.Background)
	fg := func(c lipgloss.Color) lipgloss.Style { return base.Foreground(c) }

	titleStyle = fg(t.Accent).Bold(true).MarginBottom(1)
	borderStyle = base.Border(lipgloss.RoundedBorder()).BorderForeground(t.Frame).Padding(1, 2)
	labelStyle = fg(t.Frame).Bold(true)
	detailStyle = fg(t.Detail).Italic(true)
	cursorStyle = fg(t.Accent).Bold(true)
	hotkeyStyle = fg(t.Frame)
	helpStyle = fg(t.Muted)
	bodyStyle = fg(t.Text)

	stoppedBadge = fg(t.Idle).Bold(true)
	playingBadge = fg(t.Accent).Bold(true)
	silentBadge = fg(t.Pause).Bold(true)
	errorBadge = fg(t.Alert).Bold(true)
	statusOkStyle = stoppedBadge
	statusBadStyle = errorBadge

	debugTitleStyle = helpStyle.Bold(true)
	debugHeaderStyle = helpStyle.Bold(true)
	debugRuleStyle = helpStyle
	debugTimeStyle = helpStyle
	debugMsgStyle = helpStyle
	debugSepStyle = helpStyle.Faint(true)
	debugCategoryStyle = fg(t.Pause)
}
