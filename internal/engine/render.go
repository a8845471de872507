package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/output"
)

// Render produces d of mono PCM offline through the same processor a live
// session uses, with the envelope driven by a sample clock. When fadeTail
// is set and the settings have a fade-out, the final buffer is silent.
// A nil src uses a fresh source for settings.
func Render(settings noise.Settings, src *noise.Source, d time.Duration, fadeTail bool) ([]int16, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("invalid render duration: %s", d)
	}
	if src == nil {
		src = noise.NewSource(settings.Color, settings.Gain)
	}

	clock := noise.NewSampleClock(settings.SampleRate)
	proc := noise.NewProcessorWithSource(settings, src, clock.Clock())

	total := int(d.Seconds() * float64(settings.SampleRate))
	bufLen := settings.BufferSize

	// Gain is sampled at buffer starts, so the fade is requested at the
	// last buffer boundary that leaves a full fade before the final buffer.
	fadeAt := -1
	if fadeTail && settings.FadeOutMs > 0 && total > 0 {
		lastStart := (total - 1) / bufLen * bufLen
		fadeFrames := int(math.Ceil(settings.FadeOut().Seconds() * float64(settings.SampleRate)))
		fadeAt = max(lastStart-fadeFrames, 0)
	}

	out := make([]int16, total)
	buf := make([]float32, bufLen)
	for pos := 0; pos < total; pos += bufLen {
		if fadeAt >= 0 && pos <= fadeAt && fadeAt < pos+bufLen {
			proc.RequestFadeOut()
		}
		n := min(bufLen, total-pos)
		proc.Process(buf[:n])
		output.ConvertPCM16(out[pos:pos+n], buf[:n])
		clock.Advance(n)
	}
	return out, nil
}
