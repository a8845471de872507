package output

import (
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// The speaker can only be initialised once per process; it runs at the
// configured device rate and sessions at other rates go through
// beep.Resample.
var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker(deviceRate int) error {
	speakerOnce.Do(func() {
		sr := beep.SampleRate(deviceRate)
		speakerErr = speaker.Init(sr, sr.N(time.Second/10))
	})
	return speakerErr
}

// chunkStreamer is a beep.Streamer fed one buffer at a time by Write.
// It emits silence when the writer falls behind and ends once done closes.
type chunkStreamer struct {
	chunks chan []float32
	done   chan struct{}
	cur    []float32
}

func (c *chunkStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if len(c.cur) == 0 {
			select {
			case <-c.done:
				return i, i > 0
			case chunk := <-c.chunks:
				c.cur = chunk
			default:
				clear(samples[i:])
				return len(samples), true
			}
		}
		v := float64(c.cur[0])
		samples[i] = [2]float64{v, v}
		c.cur = c.cur[1:]
	}
	return len(samples), true
}

func (c *chunkStreamer) Err() error { return nil }

type beepSink struct {
	stream     *chunkStreamer
	sampleRate int
	deviceRate int
	logger     *log.Logger
	closeOnce  sync.Once
}

func beepOpener(deviceRate int, logger *log.Logger) Opener {
	return func(sampleRate, bufferFrames int) (Sink, error) {
		if err := initSpeaker(deviceRate); err != nil {
			logger.Printf("output: speaker init error: %v", err)
			return nil, err
		}
		return &beepSink{
			stream: &chunkStreamer{
				chunks: make(chan []float32, 1),
				done:   make(chan struct{}),
			},
			sampleRate: sampleRate,
			deviceRate: deviceRate,
			logger:     logger,
		}, nil
	}
}

func (s *beepSink) Start() error {
	var st beep.Streamer = s.stream
	if s.sampleRate != s.deviceRate {
		st = beep.Resample(4, beep.SampleRate(s.sampleRate), beep.SampleRate(s.deviceRate), st)
		s.logger.Printf("output: beep resampling %d Hz -> %d Hz", s.sampleRate, s.deviceRate)
	}
	speaker.Play(st)
	return nil
}

func (s *beepSink) Write(samples []float32) error {
	select {
	case <-s.stream.done:
		return ErrClosed
	default:
	}
	chunk := make([]float32, len(samples))
	copy(chunk, samples)
	select {
	case s.stream.chunks <- chunk:
		return nil
	case <-s.stream.done:
		return ErrClosed
	}
}

func (s *beepSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.stream.done)
	})
	return nil
}
