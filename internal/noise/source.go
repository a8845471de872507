package noise

import (
	"math/rand/v2"
	"time"
)

// Source produces one sample of colored noise at a time. A Source is owned
// by a single goroutine; its filter state is never shared.
type Source struct {
	gain  float64
	color Color
	rng   *rand.Rand
	pink  pinkFilter
	brown brownFilter
}

// NewSource creates a time-seeded Source.
func NewSource(color Color, gain float64) *Source {
	seed := uint64(time.Now().UnixNano())
	return NewSeededSource(color, gain, seed)
}

// NewSeededSource creates a Source with a deterministic random sequence.
func NewSeededSource(color Color, gain float64, seed uint64) *Source {
	return &Source{
		gain:  gain,
		color: color,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// white draws a value in [0, 2*gain) and removes the bias so the result
// lies in [-gain, gain].
func (s *Source) white() float64 {
	return s.rng.Float64()*2*s.gain - s.gain
}

// Next returns the next sample.
func (s *Source) Next() float64 {
	w := s.white()
	switch s.color {
	case Pink:
		return s.pink.process(w)
	case Brown:
		return s.brown.process(w)
	default:
		return w
	}
}

// Fill writes len(buf) consecutive samples into buf.
func (s *Source) Fill(buf []float32) {
	for i := range buf {
		buf[i] = float32(s.Next())
	}
}

// pinkFilter is Paul Kellet's refined pink noise filter: six leaky
// integrators plus a one-sample lag term, accurate to about ±0.05 dB
// above 9.2 Hz at 44.1 kHz.
type pinkFilter struct {
	b0, b1, b2, b3, b4, b5, b6 float64
}

func (f *pinkFilter) process(white float64) float64 {
	f.b0 = 0.99886*f.b0 + white*0.0555179
	f.b1 = 0.99332*f.b1 + white*0.0750759
	f.b2 = 0.96900*f.b2 + white*0.1538520
	f.b3 = 0.86650*f.b3 + white*0.3104856
	f.b4 = 0.55000*f.b4 + white*0.5329522
	f.b5 = -0.7616*f.b5 - white*0.0168980
	pink := f.b0 + f.b1 + f.b2 + f.b3 + f.b4 + f.b5 + f.b6 + white*0.5362
	f.b6 = white * 0.115926
	return pink * 0.11
}

// brownFilter approximates brownian noise with a leaky integrator whose
// feedback factor 1/1.02 keeps it bounded for bounded input.
type brownFilter struct {
	last float64
}

func (f *brownFilter) process(white float64) float64 {
	f.last = (f.last + white*0.02) / 1.02
	return f.last * 3.5
}
