package noise

import (
	"fmt"
	"strings"
	"time"
)

// Color is the spectral shape of generated noise.
type Color int

const (
	White Color = iota
	Pink
	Brown
)

var colorNames = map[Color]string{
	White: "WHITE",
	Pink:  "PINK",
	Brown: "BROWN",
}

// Colors lists the supported colors in display order.
var Colors = []Color{White, Pink, Brown}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return colorNames[White]
}

// ParseColor resolves a stored color name. Unknown or corrupted values
// resolve to White rather than failing.
func ParseColor(s string) Color {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range colorNames {
		if name == upper {
			return c
		}
	}
	return White
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the White fallback.
func (c *Color) UnmarshalText(text []byte) error {
	*c = ParseColor(string(text))
	return nil
}

// SampleRates are the sample rates the player offers.
var SampleRates = []int{22050, 44100, 48000}

// BufferSizes are the buffer sizes (in frames) the player offers.
var BufferSizes = []int{512, 1024, 2048}

// Settings is the immutable snapshot consumed by one engine session.
type Settings struct {
	Gain       float64
	SampleRate int
	BufferSize int
	Color      Color
	FadeInMs   int64
	FadeOutMs  int64
}

// FadeIn returns the fade-in duration.
func (s Settings) FadeIn() time.Duration {
	return time.Duration(s.FadeInMs) * time.Millisecond
}

// FadeOut returns the fade-out duration.
func (s Settings) FadeOut() time.Duration {
	return time.Duration(s.FadeOutMs) * time.Millisecond
}

// Validate reports settings the engine cannot run with.
func (s Settings) Validate() error {
	if s.Gain < 0 || s.Gain > 1 {
		return fmt.Errorf("gain %.3f out of range [0, 1]", s.Gain)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", s.SampleRate)
	}
	if s.BufferSize <= 0 {
		return fmt.Errorf("invalid buffer size: %d", s.BufferSize)
	}
	if s.FadeInMs < 0 || s.FadeOutMs < 0 {
		return fmt.Errorf("negative fade: in=%dms out=%dms", s.FadeInMs, s.FadeOutMs)
	}
	return nil
}

func (s Settings) String() string {
	return fmt.Sprintf("%s gain=%.2f rate=%d buffer=%d fade=%d/%dms",
		s.Color, s.Gain, s.SampleRate, s.BufferSize, s.FadeInMs, s.FadeOutMs)
}
