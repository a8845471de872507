package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/engine"
	"github.com/Danondso/drone/internal/preset"
	"github.com/Danondso/drone/internal/store"
)

// stopWatcher reports when the player stops on its own, e.g. after a
// one-shot burst.
type stopWatcher chan struct{}

func (w stopWatcher) PlayingChanged(_ int64, playing bool) {
	if playing {
		return
	}
	select {
	case w <- struct{}{}:
	default:
	}
}

func handlePlay(args []string, dbg *log.Logger) {
	cfg, _ := loadConfig(dbg)

	fs := flag.NewFlagSet("play", flag.ExitOnError)
	name := fs.String("preset", "", "name of a stored preset to play")
	once := fs.Duration("once", 0, "play a single burst of this length, then exit")
	nf := bindNoiseFlags(fs, cfg.Noise)
	_ = fs.Parse(args)

	pr, err := resolvePreset(cfg, *name, nf, dbg)
	if err != nil {
		log.Fatalf("play: %v", err)
	}

	open, cleanup := openAudio(cfg, dbg)
	defer cleanup()
	eng := engine.New(open, dbg)
	defer eng.Stop()

	stopped := make(stopWatcher, 1)
	player := preset.NewPlayer(eng, dbg, stopped)
	defer player.Close()

	if *once > 0 {
		err = player.Burst(pr.Settings(), *once)
	} else {
		err = player.PlayPreset(pr)
	}
	if err != nil {
		log.Fatalf("play: %v", err)
	}
	dbg.Printf("play: engine session %s", eng.SessionID())
	fmt.Printf("Playing %s. Press Ctrl-C to stop.\n", pr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case <-ctx.Done():
		player.StopPlayback()
		waitFade(eng, pr.Settings().FadeOut())
	case <-stopped:
		waitFade(eng, pr.Settings().FadeOut())
	}
}

// resolvePreset returns the named stored preset, or one built from flags.
func resolvePreset(cfg *config.Config, name string, nf *noiseFlags, dbg *log.Logger) (preset.Preset, error) {
	if name == "" {
		return nf.preset("ad hoc")
	}
	st := openStore(cfg, dbg)
	rec, err := st.PresetByName(name)
	if errors.Is(err, store.ErrNotFound) {
		return preset.Preset{}, fmt.Errorf("no preset named %q", name)
	}
	if err != nil {
		return preset.Preset{}, err
	}
	pr := preset.FromRecord(rec)
	return pr, pr.Validate()
}

// waitFade lets a deferred fade-out finish before the process exits.
func waitFade(eng *engine.Engine, fade time.Duration) {
	deadline := time.Now().Add(fade + 500*time.Millisecond)
	for eng.Active() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}
