package preset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Danondso/drone/internal/noise"
)

// QuickStartID marks ad-hoc playback that is not backed by a stored preset.
const QuickStartID int64 = -1

// ErrClosed is returned by play calls after Close.
var ErrClosed = errors.New("player closed")

// Engine is the playback surface the Player drives.
type Engine interface {
	Start(settings noise.Settings) error
	Stop()
	StopWithFade()
}

// Listener is told when the playing preset changes. It is called from
// whichever goroutine made the change and must not call back into the
// Player.
type Listener interface {
	PlayingChanged(id int64, playing bool)
}

// Phase is where the Player is in a playback cycle.
type Phase int

const (
	PhaseStopped Phase = iota
	PhasePlaying
	PhaseSilent
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseSilent:
		return "silent"
	default:
		return "stopped"
	}
}

type change struct {
	id      int64
	playing bool
}

// Player plays at most one preset at a time, looping bursts for presets
// with auto-burst enabled. Control methods may be called from any
// goroutine; they are serialized internally.
type Player struct {
	engine    Engine
	listeners []Listener
	logger    *log.Logger

	mu       sync.Mutex
	closed   bool
	playing  int64
	active   bool
	gen      uint64
	cancel   context.CancelFunc
	loopDone chan struct{}

	phaseMu sync.Mutex
	phase   Phase
}

// NewPlayer creates a Player driving engine.
func NewPlayer(engine Engine, logger *log.Logger, listeners ...Listener) *Player {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Player{engine: engine, logger: logger, listeners: listeners}
}

// Playing returns the id of the playing preset.
func (p *Player) Playing() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.active
}

// Phase reports the current playback phase.
func (p *Player) Phase() Phase {
	p.phaseMu.Lock()
	defer p.phaseMu.Unlock()
	return p.phase
}

func (p *Player) setPhase(ph Phase) {
	p.phaseMu.Lock()
	p.phase = ph
	p.phaseMu.Unlock()
}

// PlayPreset stops whatever is playing, then plays pr continuously or as
// a burst loop.
func (p *Player) PlayPreset(pr Preset) error {
	if err := pr.Validate(); err != nil {
		return err
	}
	if pr.AutoBurst {
		return p.play(pr.ID, pr.Settings(), func(ctx context.Context, done chan struct{}, _ uint64) {
			p.burstLoop(ctx, done, pr.Settings(), pr.BurstDuration(), pr.IntervalDuration())
		})
	}
	return p.play(pr.ID, pr.Settings(), nil)
}

// TogglePreset stops pr if it is playing and plays it otherwise.
func (p *Player) TogglePreset(pr Preset) error {
	if id, ok := p.Playing(); ok && id == pr.ID {
		p.StopPlayback()
		return nil
	}
	return p.PlayPreset(pr)
}

// PlaySettings plays ad-hoc settings continuously under QuickStartID.
func (p *Player) PlaySettings(settings noise.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return p.play(QuickStartID, settings, nil)
}

// Burst plays settings once for d, then stops with a fade unless another
// control call intervenes.
func (p *Player) Burst(settings noise.Settings, d time.Duration) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return p.burst(QuickStartID, settings, d)
}

// BurstPreset plays one burst of pr regardless of its auto-burst flag.
func (p *Player) BurstPreset(pr Preset) error {
	if err := pr.Validate(); err != nil {
		return err
	}
	return p.burst(pr.ID, pr.Settings(), pr.BurstDuration())
}

func (p *Player) burst(id int64, settings noise.Settings, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("burst duration must be positive, got %s", d)
	}
	return p.play(id, settings, func(ctx context.Context, done chan struct{}, gen uint64) {
		if p.oneShot(ctx, done, settings, d) {
			p.burstFinished(gen)
		}
	})
}

// play replaces the current playback. With a nil loop the engine is started
// here; otherwise the loop owns all engine calls until cancelled.
func (p *Player) play(id int64, settings noise.Settings, loop func(ctx context.Context, done chan struct{}, gen uint64)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	changes := p.stopLocked()

	p.playing = id
	p.active = true
	changes = append(changes, change{id: id, playing: true})

	var err error
	if loop == nil {
		err = p.engine.Start(settings)
		if err == nil {
			p.setPhase(PhasePlaying)
			p.logger.Printf("burst: playing %d continuously", id)
		}
	} else {
		p.logger.Printf("burst: starting loop for %d", id)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		p.cancel = cancel
		p.loopDone = done
		go loop(ctx, done, p.gen)
	}
	if err != nil {
		p.logger.Printf("burst: start %d: %v", id, err)
		p.active = false
		p.playing = 0
		changes = append(changes, change{id: id, playing: false})
	}
	p.mu.Unlock()

	p.notify(changes)
	return err
}

// StopPlayback cancels any burst loop, fades the engine out and clears the
// playing preset.
func (p *Player) StopPlayback() {
	p.mu.Lock()
	changes := p.stopLocked()
	p.mu.Unlock()
	p.notify(changes)
}

// PresetDeleted stops playback if id is the playing preset.
func (p *Player) PresetDeleted(id int64) {
	p.mu.Lock()
	var changes []change
	if p.active && p.playing == id {
		changes = p.stopLocked()
	}
	p.mu.Unlock()
	p.notify(changes)
}

// Close stops playback. Later play calls return ErrClosed.
func (p *Player) Close() {
	p.mu.Lock()
	changes := p.stopLocked()
	p.closed = true
	p.mu.Unlock()
	p.notify(changes)
}

func (p *Player) stopLocked() []change {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		<-p.loopDone
		p.cancel = nil
		p.loopDone = nil
	}
	p.engine.StopWithFade()
	p.setPhase(PhaseStopped)

	if !p.active {
		return nil
	}
	id := p.playing
	p.active = false
	p.playing = 0
	p.logger.Printf("burst: stopped %d", id)
	return []change{{id: id, playing: false}}
}

func (p *Player) notify(changes []change) {
	for _, c := range changes {
		for _, l := range p.listeners {
			l.PlayingChanged(c.id, c.playing)
		}
	}
}

// burstLoop alternates between playing for on and silence for off until
// ctx is cancelled. A cancelled loop makes no further engine calls.
func (p *Player) burstLoop(ctx context.Context, done chan struct{}, settings noise.Settings, on, off time.Duration) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.engine.Start(settings); err != nil {
			p.logger.Printf("burst: start: %v", err)
		}
		p.setPhase(PhasePlaying)
		if !sleep(ctx, on) {
			return
		}

		p.engine.StopWithFade()
		p.setPhase(PhaseSilent)
		if !sleep(ctx, off) {
			return
		}
	}
}

// oneShot plays for d and fades out. It reports whether it ran to
// completion without being cancelled.
func (p *Player) oneShot(ctx context.Context, done chan struct{}, settings noise.Settings, d time.Duration) bool {
	defer close(done)
	if ctx.Err() != nil {
		return false
	}
	if err := p.engine.Start(settings); err != nil {
		p.logger.Printf("burst: start: %v", err)
		return true
	}
	p.setPhase(PhasePlaying)
	if !sleep(ctx, d) {
		return false
	}
	p.engine.StopWithFade()
	return true
}

// burstFinished clears the playing state after a one-shot burst, unless a
// control call has replaced it since generation gen started.
func (p *Player) burstFinished(gen uint64) {
	p.mu.Lock()
	if p.gen != gen || !p.active {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cancel = nil
	p.loopDone = nil
	id := p.playing
	p.active = false
	p.playing = 0
	p.setPhase(PhaseStopped)
	p.mu.Unlock()

	p.logger.Printf("burst: one-shot for %d finished", id)
	p.notify([]change{{id: id, playing: false}})
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
