package output

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// portaudioSink writes to the default output device through a blocking
// portaudio stream. Call portaudio.Initialize() before opening one.
type portaudioSink struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buf     []int16
	fill    int
	started bool
	writing bool // a stream.Write is in flight
	closed  bool
	logger  *log.Logger

	streamClosed bool
}

func portaudioOpener(logger *log.Logger) Opener {
	return func(sampleRate, bufferFrames int) (Sink, error) {
		return openPortAudio(sampleRate, bufferFrames, logger)
	}
}

func openPortAudio(sampleRate, bufferFrames int, logger *log.Logger) (*portaudioSink, error) {
	minFrames := 0
	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil {
		minFrames = int(math.Ceil(dev.DefaultLowOutputLatency.Seconds() * float64(sampleRate)))
	}
	frames := BufferFrames(minFrames, bufferFrames)

	buf := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), frames, &buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	logger.Printf("output: portaudio stream opened at %d Hz, %d frames", sampleRate, frames)

	return &portaudioSink{stream: stream, buf: buf, logger: logger}, nil
}

func (s *portaudioSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	s.started = true
	return nil
}

// Write accumulates samples into the stream buffer and blocks in
// stream.Write each time it fills.
func (s *portaudioSink) Write(samples []float32) error {
	for len(samples) > 0 {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		n := min(len(s.buf)-s.fill, len(samples))
		ConvertPCM16(s.buf[s.fill:s.fill+n], samples[:n])
		s.fill += n
		samples = samples[n:]
		full := s.fill == len(s.buf)
		if full {
			s.writing = true
		}
		s.mu.Unlock()

		if !full {
			continue
		}
		err := s.stream.Write()

		s.mu.Lock()
		s.writing = false
		s.fill = 0
		if s.closed {
			// Close aborted the stream under us and left closing it to us.
			cerr := s.closeStreamLocked()
			s.mu.Unlock()
			if cerr != nil {
				s.logger.Printf("output: %v", cerr)
			}
			return ErrClosed
		}
		s.mu.Unlock()
		if err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("write stream: %w", err)
		}
	}
	return nil
}

// Close aborts the stream, which releases a blocked Write. The stream
// itself is closed here, or by that Write once it returns.
func (s *portaudioSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.started {
		// Abort discards whatever is still queued.
		if err := s.stream.Abort(); err != nil {
			s.logger.Printf("output: abort stream: %v", err)
		}
	}
	if s.writing {
		return nil
	}
	return s.closeStreamLocked()
}

func (s *portaudioSink) closeStreamLocked() error {
	if s.streamClosed {
		return nil
	}
	s.streamClosed = true
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

// DeviceAvailable returns true if PortAudio can find a default output device.
// portaudio.Initialize() must have been called before using this.
func DeviceAvailable() bool {
	dev, err := portaudio.DefaultOutputDevice()
	return err == nil && dev != nil && dev.MaxOutputChannels > 0
}
