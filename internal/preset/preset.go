// Package preset holds named noise presets and the coordinator that plays
// them, including the auto-burst cycle.
package preset

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/store"
)

// Preset is a named noise configuration. Fades and burst timings are in
// seconds.
type Preset struct {
	ID                   int64
	Name                 string
	Gain                 float64
	SampleRate           int
	BufferSize           int
	Color                noise.Color
	FadeInSeconds        float64
	FadeOutSeconds       float64
	BurstSeconds         float64
	BurstIntervalSeconds float64
	AutoBurst            bool
}

// Settings converts the preset to engine settings, seconds to milliseconds.
func (p Preset) Settings() noise.Settings {
	return noise.Settings{
		Gain:       p.Gain,
		SampleRate: p.SampleRate,
		BufferSize: p.BufferSize,
		Color:      p.Color,
		FadeInMs:   secondsToMs(p.FadeInSeconds),
		FadeOutMs:  secondsToMs(p.FadeOutSeconds),
	}
}

// BurstDuration is how long each burst plays.
func (p Preset) BurstDuration() time.Duration {
	return secondsToDuration(p.BurstSeconds)
}

// IntervalDuration is the silence between bursts.
func (p Preset) IntervalDuration() time.Duration {
	return secondsToDuration(p.BurstIntervalSeconds)
}

// Validate rejects presets that must never reach the engine.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name must not be blank")
	}
	if err := p.Settings().Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	if p.AutoBurst && (p.BurstSeconds <= 0 || p.BurstIntervalSeconds <= 0) {
		return fmt.Errorf("preset %q: auto-burst needs positive burst and interval seconds", p.Name)
	}
	return nil
}

func (p Preset) String() string {
	mode := "continuous"
	if p.AutoBurst {
		mode = fmt.Sprintf("burst %.1fs/%.1fs", p.BurstSeconds, p.BurstIntervalSeconds)
	}
	return fmt.Sprintf("%s (%s, %s)", p.Name, p.Settings(), mode)
}

// FromRecord maps a stored row to a Preset. Unknown colors resolve to WHITE.
func FromRecord(r store.PresetRecord) Preset {
	return Preset{
		ID:                   r.ID,
		Name:                 r.Name,
		Gain:                 r.Gain,
		SampleRate:           r.SampleRate,
		BufferSize:           r.BufferSize,
		Color:                noise.ParseColor(r.NoiseColor),
		FadeInSeconds:        float64(r.FadeInMs) / 1000,
		FadeOutSeconds:       float64(r.FadeOutMs) / 1000,
		BurstSeconds:         r.BurstSeconds,
		BurstIntervalSeconds: r.BurstIntervalSeconds,
		AutoBurst:            r.AutoBurst,
	}
}

// Record maps the preset to its stored row.
func (p Preset) Record() store.PresetRecord {
	return store.PresetRecord{
		ID:                   p.ID,
		Name:                 p.Name,
		Gain:                 p.Gain,
		SampleRate:           p.SampleRate,
		BufferSize:           p.BufferSize,
		NoiseColor:           p.Color.String(),
		FadeInMs:             secondsToMs(p.FadeInSeconds),
		FadeOutMs:            secondsToMs(p.FadeOutSeconds),
		BurstSeconds:         p.BurstSeconds,
		BurstIntervalSeconds: p.BurstIntervalSeconds,
		AutoBurst:            p.AutoBurst,
	}
}

// FromRecords maps stored rows, keeping their order.
func FromRecords(rs []store.PresetRecord) []Preset {
	out := make([]Preset, len(rs))
	for i, r := range rs {
		out[i] = FromRecord(r)
	}
	return out
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
