package main

import (
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/preset"
)

// noiseFlags are the preset parameters accepted by play, render and
// presets add. Defaults come from the [noise] config section.
type noiseFlags struct {
	color     *string
	gain      *float64
	rate      *int
	buffer    *int
	fadeIn    *float64
	fadeOut   *float64
	burst     *float64
	interval  *float64
	autoBurst *bool
}

func bindNoiseFlags(fs *flag.FlagSet, defaults config.NoiseConfig) *noiseFlags {
	gain := 0.5
	if len(defaults.Levels) > 1 {
		gain = defaults.Levels[1]
	}
	return &noiseFlags{
		color:     fs.String("color", defaults.Color, "noise color: white, pink or brown"),
		gain:      fs.Float64("gain", gain, "output gain in [0, 1]"),
		rate:      fs.Int("rate", defaults.SampleRate, "sample rate in Hz"),
		buffer:    fs.Int("buffer", defaults.BufferSize, "buffer size in frames"),
		fadeIn:    fs.Float64("fade-in", float64(defaults.FadeInMs)/1000, "fade-in seconds"),
		fadeOut:   fs.Float64("fade-out", float64(defaults.FadeOutMs)/1000, "fade-out seconds"),
		burst:     fs.Float64("burst-seconds", defaults.BurstSeconds, "burst length in seconds"),
		interval:  fs.Float64("interval-seconds", defaults.BurstIntervalSeconds, "silence between bursts in seconds"),
		autoBurst: fs.Bool("auto-burst", false, "loop bursts instead of playing continuously"),
	}
}

// preset builds a Preset from the flag values. Unknown colors are
// rejected here rather than silently played as white noise, and the rate
// and buffer size must be ones the player offers.
func (f *noiseFlags) preset(name string) (preset.Preset, error) {
	color := strings.ToUpper(strings.TrimSpace(*f.color))
	if !slices.ContainsFunc(noise.Colors, func(c noise.Color) bool { return c.String() == color }) {
		return preset.Preset{}, fmt.Errorf("unknown noise color %q (want one of %v)", *f.color, noise.Colors)
	}
	if !slices.Contains(noise.SampleRates, *f.rate) {
		return preset.Preset{}, fmt.Errorf("unsupported sample rate %d (want one of %v)", *f.rate, noise.SampleRates)
	}
	if !slices.Contains(noise.BufferSizes, *f.buffer) {
		return preset.Preset{}, fmt.Errorf("unsupported buffer size %d (want one of %v)", *f.buffer, noise.BufferSizes)
	}
	p := preset.Preset{
		ID:                   preset.QuickStartID,
		Name:                 name,
		Gain:                 *f.gain,
		SampleRate:           *f.rate,
		BufferSize:           *f.buffer,
		Color:                noise.ParseColor(color),
		FadeInSeconds:        *f.fadeIn,
		FadeOutSeconds:       *f.fadeOut,
		BurstSeconds:         *f.burst,
		BurstIntervalSeconds: *f.interval,
		AutoBurst:            *f.autoBurst,
	}
	if err := p.Validate(); err != nil {
		return preset.Preset{}, err
	}
	return p, nil
}
