package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramListener forwards player notifications into a Bubble Tea program.
// The player is built before the program, so the program is attached later;
// notifications before that are dropped.
type ProgramListener struct {
	program atomic.Pointer[tea.Program]
}

// Attach sets the program notifications are sent to.
func (l *ProgramListener) Attach(p *tea.Program) {
	l.program.Store(p)
}

// PlayingChanged sends a PlayingChangedMsg from a goroutine, since the
// player may notify from inside a command function.
func (l *ProgramListener) PlayingChanged(id int64, playing bool) {
	p := l.program.Load()
	if p == nil {
		return
	}
	go p.Send(PlayingChangedMsg{ID: id, Playing: playing})
}
