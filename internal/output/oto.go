package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	resampling "github.com/tphakala/go-audio-resampling"
)

// oto allows a single context per process, so every oto sink shares one
// created lazily at the configured device rate.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(deviceRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   deviceRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if err != nil {
			otoErr = fmt.Errorf("create oto context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// otoSink feeds an oto player through a pipe, so Write blocks until the
// player has pulled the previous bytes.
type otoSink struct {
	player     *oto.Player
	pr         *io.PipeReader
	pw         *io.PipeWriter
	sampleRate int
	deviceRate int
	pcm        []byte
	logger     *log.Logger

	closeOnce sync.Once
}

func otoOpener(deviceRate int, logger *log.Logger) Opener {
	return func(sampleRate, bufferFrames int) (Sink, error) {
		ctx, err := otoContext(deviceRate)
		if err != nil {
			return nil, err
		}
		pr, pw := io.Pipe()
		player := ctx.NewPlayer(pr)
		frames := BufferFrames(deviceRate/20, bufferFrames*deviceRate/sampleRate)
		player.SetBufferSize(frames * 2)

		if sampleRate != deviceRate {
			logger.Printf("output: oto resampling %d Hz -> %d Hz", sampleRate, deviceRate)
		}
		return &otoSink{
			player:     player,
			pr:         pr,
			pw:         pw,
			sampleRate: sampleRate,
			deviceRate: deviceRate,
			logger:     logger,
		}, nil
	}
}

func (s *otoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *otoSink) Write(samples []float32) error {
	if s.sampleRate != s.deviceRate {
		resampled, err := resampleFloat32(samples, float64(s.sampleRate), float64(s.deviceRate))
		if err != nil {
			return err
		}
		samples = resampled
	}

	need := len(samples) * 2
	if cap(s.pcm) < need {
		s.pcm = make([]byte, need)
	}
	s.pcm = s.pcm[:need]
	for i, v := range samples {
		binary.LittleEndian.PutUint16(s.pcm[i*2:], uint16(FloatToPCM16(v)))
	}

	if _, err := s.pw.Write(s.pcm); err != nil {
		if err == io.ErrClosedPipe {
			return ErrClosed
		}
		return fmt.Errorf("write player: %w", err)
	}
	return nil
}

func (s *otoSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// Closing the read side unblocks a pending Write.
		s.pr.Close()
		s.pw.Close()
		s.player.Pause()
		if cerr := s.player.Close(); cerr != nil {
			err = fmt.Errorf("close player: %w", cerr)
		}
	})
	return err
}

func resampleFloat32(samples []float32, inputRate, outputRate float64) ([]float32, error) {
	floats := make([]float64, len(samples))
	for i, v := range samples {
		floats[i] = float64(v)
	}
	resampled, err := resampling.ResampleMono(floats, inputRate, outputRate, resampling.QualityLow)
	if err != nil {
		return nil, fmt.Errorf("resample mono: %w", err)
	}
	out := make([]float32, len(resampled))
	for i, f := range resampled {
		out[i] = float32(f)
	}
	return out, nil
}
