package noise

import "sync/atomic"

// SampleClock derives time from the number of frames rendered, for offline
// rendering where wall time is meaningless.
type SampleClock struct {
	rate   int64
	frames atomic.Int64
}

// NewSampleClock creates a SampleClock for the given sample rate.
func NewSampleClock(sampleRate int) *SampleClock {
	return &SampleClock{rate: int64(sampleRate)}
}

// Advance moves the clock forward by n frames.
func (c *SampleClock) Advance(n int) {
	c.frames.Add(int64(n))
}

// Now returns the elapsed time in nanoseconds.
func (c *SampleClock) Now() int64 {
	return c.frames.Load() * 1_000_000_000 / c.rate
}

// Clock adapts the SampleClock to a Clock.
func (c *SampleClock) Clock() Clock {
	return c.Now
}
