// Package engine runs at most one noise session at a time: a generation
// goroutine that renders enveloped noise and blocks on an output sink.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/output"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock every session's envelope reads.
func WithClock(clock noise.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithSourceFunc overrides how a session's noise source is created.
func WithSourceFunc(fn func(noise.Settings) *noise.Source) Option {
	return func(e *Engine) { e.newSource = fn }
}

// loopExitTimeout bounds how long teardown waits for a generation loop
// stuck in a sink that ignored Close.
const loopExitTimeout = 2 * time.Second

type session struct {
	id       uuid.UUID
	settings noise.Settings
	proc     *noise.Processor
	sink     output.Sink
	done     chan struct{} // closed when the loop should exit
	loopDone chan struct{} // closed when the loop has exited
	timer    *time.Timer   // pending deferred stop, if fading out
}

// Engine owns the active session. All methods are safe for concurrent use.
type Engine struct {
	open      output.Opener
	logger    *log.Logger
	clock     noise.Clock
	newSource func(noise.Settings) *noise.Source

	mu   sync.Mutex
	sess *session
}

// New creates an Engine that opens sinks with open.
func New(open output.Opener, logger *log.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &Engine{
		open:   open,
		logger: logger,
		newSource: func(s noise.Settings) *noise.Source {
			return noise.NewSource(s.Color, s.Gain)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start tears down any running session, then opens a sink and starts a new
// generation loop for settings. Nothing is left running if it fails.
func (e *Engine) Start(settings noise.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()

	sink, err := e.open(settings.SampleRate, settings.BufferSize)
	if err != nil {
		e.logger.Printf("engine: open output: %v", err)
		return fmt.Errorf("open output: %w", err)
	}
	if err := sink.Start(); err != nil {
		sink.Close()
		e.logger.Printf("engine: start output: %v", err)
		return fmt.Errorf("start output: %w", err)
	}

	s := &session{
		id:       uuid.New(),
		settings: settings,
		proc:     noise.NewProcessorWithSource(settings, e.newSource(settings), e.clock),
		sink:     sink,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	e.sess = s
	go e.loop(s)

	e.logger.Printf("engine: session %s started (%s)", s.id, settings)
	return nil
}

func (e *Engine) loop(s *session) {
	defer close(s.loopDone)
	buf := make([]float32, s.settings.BufferSize)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.proc.Process(buf)
		if err := s.sink.Write(buf); err != nil {
			if !errors.Is(err, output.ErrClosed) {
				e.logger.Printf("engine: session %s write error: %v", s.id, err)
			}
			return
		}
	}
}

// Stop halts the loop, waits for it to exit and closes the sink. It is a
// no-op when nothing is playing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
}

// StopWithFade starts the session's fade-out and stops it once the fade
// has run. Without a fade-out it stops immediately. The caller is not
// blocked.
func (e *Engine) StopWithFade() {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sess
	if s == nil {
		return
	}
	if s.settings.FadeOutMs <= 0 {
		e.teardownLocked()
		return
	}
	if s.timer != nil {
		return
	}

	s.proc.RequestFadeOut()
	s.timer = time.AfterFunc(s.settings.FadeOut(), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// A later Start or Stop already replaced this session.
		if e.sess != s {
			return
		}
		e.teardownLocked()
	})
	e.logger.Printf("engine: session %s fading out over %s", s.id, s.settings.FadeOut())
}

func (e *Engine) teardownLocked() {
	s := e.sess
	if s == nil {
		return
	}
	e.sess = nil

	if s.timer != nil {
		s.timer.Stop()
	}

	// Closing the sink releases a Write blocked on the device; the loop
	// then sees ErrClosed or done and exits.
	close(s.done)
	if err := s.sink.Close(); err != nil {
		e.logger.Printf("engine: session %s close output: %v", s.id, err)
	}
	select {
	case <-s.loopDone:
	case <-time.After(loopExitTimeout):
		e.logger.Printf("engine: session %s loop did not exit after %s", s.id, loopExitTimeout)
	}
	e.logger.Printf("engine: session %s stopped", s.id)
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil
}

// FadingOut reports whether the active session has a deferred stop pending.
func (e *Engine) FadingOut() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil && e.sess.timer != nil
}

// SessionID returns the active session's id, or "" when idle.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ""
	}
	return e.sess.id.String()
}

// Settings returns the active session's settings.
func (e *Engine) Settings() (noise.Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return noise.Settings{}, false
	}
	return e.sess.settings, true
}
