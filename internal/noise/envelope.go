package noise

import (
	"sync"
	"time"
)

// Clock returns a monotonic timestamp in nanoseconds.
type Clock func() int64

// MonotonicClock returns a Clock backed by the runtime's monotonic clock.
func MonotonicClock() Clock {
	base := time.Now()
	return func() int64 {
		return int64(time.Since(base))
	}
}

// Envelope computes the fade gain applied to every sample of a session.
// The fade-in origin is captured on the first Gain call, the fade-out
// origin on the first RequestFadeOut call.
type Envelope struct {
	fadeInNs  int64
	fadeOutNs int64
	clock     Clock

	mu           sync.Mutex
	started      bool
	startNs      int64
	fadeOut      bool
	fadeOutStart int64
}

// NewEnvelope creates an Envelope with the given ramp lengths. A nil clock
// uses MonotonicClock.
func NewEnvelope(fadeIn, fadeOut time.Duration, clock Clock) *Envelope {
	if clock == nil {
		clock = MonotonicClock()
	}
	return &Envelope{
		fadeInNs:  int64(fadeIn),
		fadeOutNs: int64(fadeOut),
		clock:     clock,
	}
}

// Gain returns the effective gain in [0, 1] at the current clock time.
func (e *Envelope) Gain() float64 {
	now := e.clock()

	e.mu.Lock()
	if !e.started {
		e.started = true
		e.startNs = now
	}
	start := e.startNs
	fadeOut := e.fadeOut
	fadeOutStart := e.fadeOutStart
	e.mu.Unlock()

	in := 1.0
	if e.fadeInNs > 0 {
		elapsed := max(now-start, 0)
		in = clamp01(float64(elapsed) / float64(e.fadeInNs))
	}

	out := 1.0
	if fadeOut {
		if e.fadeOutNs <= 0 {
			out = 0
		} else {
			elapsed := max(now-fadeOutStart, 0)
			out = clamp01(1 - float64(elapsed)/float64(e.fadeOutNs))
		}
	}

	return min(in, out)
}

// RequestFadeOut starts the fade-out ramp. Only the first call has an effect.
func (e *Envelope) RequestFadeOut() {
	now := e.clock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fadeOut {
		return
	}
	e.fadeOut = true
	e.fadeOutStart = now
}

// FadingOut reports whether a fade-out has been requested.
func (e *Envelope) FadingOut() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fadeOut
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
