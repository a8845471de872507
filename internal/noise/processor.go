package noise

// Processor renders buffers of enveloped noise for one session.
type Processor struct {
	settings Settings
	source   *Source
	envelope *Envelope
}

// NewProcessor binds a fresh Source and Envelope to settings.
// A nil clock uses MonotonicClock.
func NewProcessor(settings Settings, clock Clock) *Processor {
	return NewProcessorWithSource(settings, NewSource(settings.Color, settings.Gain), clock)
}

// NewProcessorWithSource is NewProcessor with a caller-supplied source.
func NewProcessorWithSource(settings Settings, src *Source, clock Clock) *Processor {
	return &Processor{
		settings: settings,
		source:   src,
		envelope: NewEnvelope(settings.FadeIn(), settings.FadeOut(), clock),
	}
}

// Settings returns the snapshot this processor was built from.
func (p *Processor) Settings() Settings {
	return p.settings
}

// Process fills buf with colored noise scaled by the envelope gain,
// sampled once per buffer.
func (p *Processor) Process(buf []float32) {
	p.source.Fill(buf)
	gain := float32(p.envelope.Gain())
	if gain == 1 {
		return
	}
	for i := range buf {
		buf[i] *= gain
	}
}

// RequestFadeOut starts the envelope's fade-out ramp.
func (p *Processor) RequestFadeOut() {
	p.envelope.RequestFadeOut()
}
