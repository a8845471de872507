package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter is an io.Writer that sends each written line as a DebugLogMsg
// to a Bubble Tea program. Use it as the output for a log.Logger.
type LogWriter struct {
	program *tea.Program
}

// NewLogWriter creates a LogWriter that sends debug lines to the given program.
func NewLogWriter(p *tea.Program) *LogWriter {
	return &LogWriter{program: p}
}

// Write implements io.Writer. Each call parses the log line into structured
// fields and sends a DebugLogMsg from a goroutine, since loggers are also
// called from inside Bubble Tea command functions.
func (w *LogWriter) Write(b []byte) (int, error) {
	line := strings.TrimRight(string(b), "\n")
	entry := parseLine(line)
	go w.program.Send(DebugLogMsg{Entry: entry})
	return len(b), nil
}

// parseLine extracts time, category, and message from a log line.
// Expected format: "[DEBUG] HH:MM:SS.micros subsystem: message text"
func parseLine(line string) DebugEntry {
	entry := DebugEntry{
		Time:     "",
		Category: "debug",
		Message:  line,
	}

	// Strip "[DEBUG] " prefix
	msg := strings.TrimPrefix(line, "[DEBUG] ")

	// Extract timestamp (HH:MM:SS.micros or HH:MM:SS)
	if len(msg) >= 8 && msg[2] == ':' && msg[5] == ':' {
		spaceIdx := strings.IndexByte(msg, ' ')
		if spaceIdx > 0 {
			entry.Time = msg[:spaceIdx]
			msg = msg[spaceIdx+1:]
		}
	}

	entry.Category, entry.Message = inferCategory(msg)

	return entry
}

// categories maps a subsystem prefix to the label shown in the debug panel.
var categories = map[string]string{
	"engine":    "engine",
	"burst":     "burst",
	"player":    "burst",
	"output":    "audio",
	"portaudio": "audio",
	"store":     "store",
	"config":    "config",
	"hotkey":    "hotkey",
	"keyboard":  "device",
	"tui":       "ui",
}

// inferCategory determines the log category from the "subsystem:" prefix
// of the message and strips it.
func inferCategory(msg string) (category, message string) {
	prefix, rest, ok := strings.Cut(msg, ":")
	if !ok || strings.ContainsRune(prefix, ' ') {
		return "debug", msg
	}
	cat, known := categories[strings.ToLower(prefix)]
	if !known {
		return "debug", msg
	}
	return cat, strings.TrimSpace(rest)
}
