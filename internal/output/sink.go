package output

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
)

// Sink is a mono 16-bit PCM output stream.
type Sink interface {
	// Start begins device playback.
	Start() error
	// Write blocks until the device has accepted samples.
	Write(samples []float32) error
	// Close stops playback, discards queued audio and releases the device.
	// It may be called while Write is blocked and makes that Write return
	// ErrClosed. Closing an already closed sink is a no-op.
	Close() error
}

// Opener opens a sink for one session.
type Opener func(sampleRate, bufferFrames int) (Sink, error)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("sink closed")

// Backend names.
const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
	BackendBeep      = "beep"
)

var backends = map[string]func(deviceRate int, logger *log.Logger) Opener{
	BackendPortAudio: func(_ int, logger *log.Logger) Opener { return portaudioOpener(logger) },
	BackendOto:       otoOpener,
	BackendBeep:      beepOpener,
}

// Backends returns the known backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NeedsPortAudio reports whether the backend requires portaudio.Initialize.
func NeedsPortAudio(backend string) bool {
	return backend == BackendPortAudio
}

// New returns an Opener for the named backend. deviceRate is the rate the
// shared device context runs at for backends that have one; sessions at a
// different rate are resampled.
func New(backend string, deviceRate int, logger *log.Logger) (Opener, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mk, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("unknown audio backend %q (want one of %v)", backend, Backends())
	}
	if deviceRate <= 0 {
		deviceRate = 48000
	}
	return mk(deviceRate, logger), nil
}

// BufferFrames returns the frame count a sink should use: the larger of
// the platform minimum and the configured size.
func BufferFrames(minFrames, configured int) int {
	return max(minFrames, configured)
}

// FloatToPCM16 converts a float sample in [-1, 1] to int16, clamping
// values outside that range.
func FloatToPCM16(v float32) int16 {
	f := float64(v) * 32767
	if f > 32767 {
		return 32767
	}
	if f < -32768 {
		return -32768
	}
	return int16(math.Round(f))
}

// ConvertPCM16 converts samples into dst, which must be at least as long.
func ConvertPCM16(dst []int16, samples []float32) {
	for i, v := range samples {
		dst[i] = FloatToPCM16(v)
	}
}
