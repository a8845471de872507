package engine

import (
	"testing"
	"time"

	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/output"
)

func renderSettings() noise.Settings {
	return noise.Settings{Gain: 0.5, SampleRate: 8000, BufferSize: 256, Color: noise.White, FadeInMs: 500, FadeOutMs: 500}
}

func TestRenderLengthAndBound(t *testing.T) {
	s := renderSettings()
	samples, err := Render(s, noise.NewSeededSource(s.Color, s.Gain, 1), 2*time.Second, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(samples) != 16000 {
		t.Fatalf("expected 16000 samples, got %d", len(samples))
	}
	if peak := output.PeakLevel(samples); peak > 0.5+1e-3 {
		t.Errorf("expected peak <= gain 0.5, got %f", peak)
	}
}

func TestRenderFadesInFromSilence(t *testing.T) {
	s := renderSettings()
	samples, err := Render(s, noise.NewSeededSource(s.Color, s.Gain, 2), time.Second, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// The first buffer is rendered at t=0 with zero gain.
	if peak := output.PeakLevel(samples[:s.BufferSize]); peak != 0 {
		t.Errorf("expected silent first buffer, got peak %f", peak)
	}
	// After the fade-in the full gain is reached.
	if peak := output.PeakLevel(samples[6000:]); peak < 0.3 {
		t.Errorf("expected full level after fade-in, got peak %f", peak)
	}
}

func TestRenderFadeTailEndsSilent(t *testing.T) {
	s := renderSettings()
	samples, err := Render(s, noise.NewSeededSource(s.Color, s.Gain, 3), 2*time.Second, true)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lastStart := (len(samples) - 1) / s.BufferSize * s.BufferSize
	if peak := output.PeakLevel(samples[lastStart:]); peak != 0 {
		t.Errorf("expected silent final buffer, got peak %f", peak)
	}
	// The fade only covers the tail.
	if peak := output.PeakLevel(samples[6000:10000]); peak < 0.3 {
		t.Errorf("expected full level before the fade, got peak %f", peak)
	}
}

func TestRenderFadeTailShorterThanFade(t *testing.T) {
	s := renderSettings()
	s.FadeInMs = 0
	samples, err := Render(s, noise.NewSeededSource(s.Color, s.Gain, 4), 200*time.Millisecond, true)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lastStart := (len(samples) - 1) / s.BufferSize * s.BufferSize
	if peak := output.PeakLevel(samples[lastStart:]); peak >= 0.5 {
		t.Errorf("expected the tail to fade, got peak %f", peak)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	s := renderSettings()
	if _, err := Render(s, nil, 0, false); err == nil {
		t.Error("expected error for zero duration")
	}
	s.SampleRate = 0
	if _, err := Render(s, nil, time.Second, false); err == nil {
		t.Error("expected error for invalid settings")
	}
}
