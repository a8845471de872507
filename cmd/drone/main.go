package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gordonklaus/portaudio"
	"golang.org/x/term"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/engine"
	"github.com/Danondso/drone/internal/hotkey"
	"github.com/Danondso/drone/internal/output"
	"github.com/Danondso/drone/internal/preset"
	"github.com/Danondso/drone/internal/store"
	"github.com/Danondso/drone/internal/tui"
)

const usage = `usage: drone [-debug] [command]

commands:
  (none)                      interactive player
  play [flags]                play a preset or ad-hoc noise until interrupted
  render -out FILE [flags]    render noise to a WAV file
  presets list|add|edit|delete|export|import
  commands list|add|edit|delete
`

// newLogger returns the debug logger every component writes to.
func newLogger(debug bool) *log.Logger {
	if debug {
		return log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

func loadConfig(dbg *log.Logger) (*config.Config, string) {
	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dbg.Printf("config: loaded %s (backend=%s)", cfgPath, cfg.Audio.Backend)
	return cfg, cfgPath
}

func openStore(cfg *config.Config, dbg *log.Logger) *store.Store {
	st, err := store.Open(cfg.StorePath(), cfg.Store.Seed, dbg)
	if err != nil {
		log.Fatalf("open library: %v", err)
	}
	return st
}

// openAudio resolves the configured backend and initialises PortAudio when
// it needs it. The returned func releases the audio system.
func openAudio(cfg *config.Config, dbg *log.Logger) (output.Opener, func()) {
	cleanup := func() {}
	if output.NeedsPortAudio(cfg.Audio.Backend) {
		if err := initPortAudio(); err != nil {
			log.Fatalf("portaudio init: %v", err)
		}
		dbg.Printf("portaudio: initialized")
		if !output.DeviceAvailable() {
			log.Printf("WARNING: no default output device found")
		}
		cleanup = func() { _ = portaudio.Terminate() }
	}
	open, err := output.New(cfg.Audio.Backend, cfg.Audio.DeviceSampleRate, dbg)
	if err != nil {
		cleanup()
		log.Fatalf("audio backend: %v", err)
	}
	return open, cleanup
}

func run() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	debug := flag.Bool("debug", false, "enable debug logging to stderr")
	flag.Parse()

	dbg := newLogger(*debug)

	if args := flag.Args(); len(args) > 0 {
		cmd, rest := args[0], args[1:]
		switch cmd {
		case "play":
			handlePlay(rest, dbg)
		case "render":
			handleRender(rest, dbg)
		case "presets":
			handlePresets(rest, dbg)
		case "commands":
			handleCommands(rest, dbg)
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
			flag.Usage()
			os.Exit(2)
		}
		return
	}

	if err := runTUI(dbg, *debug); err != nil {
		log.Fatal(err)
	}
}

// runTUI runs the interactive player. It returns instead of exiting so
// the engine and audio backend are always shut down.
func runTUI(dbg *log.Logger, debug bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int on all supported platforms
		log.Fatal("the interactive player needs a terminal; use 'drone play' for headless playback")
	}

	cfg, cfgPath := loadConfig(dbg)
	st := openStore(cfg, dbg)
	open, cleanup := openAudio(cfg, dbg)
	defer cleanup()

	eng := engine.New(open, dbg)
	defer eng.Stop()

	listener := &tui.ProgramListener{}
	player := preset.NewPlayer(eng, dbg, listener)

	model := tui.NewModel(cfg, cfgPath, player, preset.FromRecords(st.Presets()), output.DeviceName(), dbg, debug)
	model.Library = st
	p := tea.NewProgram(model, tea.WithAltScreen())
	listener.Attach(p)

	// When debug is enabled, redirect logger output into the TUI debug panel
	if debug {
		dbg.SetOutput(tui.NewLogWriter(p))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Hotkey.Enabled {
		startHotkey(ctx, cfg, dbg, func() { p.Send(tui.HotkeyPressedMsg{}) })
	}

	_, runErr := p.Run()
	return finishTUI(player, eng, runErr)
}

// finishTUI stops playback once the program has exited. A clean exit lets
// a pending fade-out finish; a failed one returns right away.
func finishTUI(player interface{ Close() }, eng *engine.Engine, runErr error) error {
	player.Close()
	if runErr != nil {
		return fmt.Errorf("run tui: %w", runErr)
	}
	if s, ok := eng.Settings(); ok {
		waitFade(eng, s.FadeOut())
	}
	return nil
}

// startHotkey runs the global toggle key listener until ctx is done.
// A listener that cannot start is reported and otherwise ignored.
func startHotkey(ctx context.Context, cfg *config.Config, dbg *log.Logger, onPress func()) {
	l, err := createListener(cfg, dbg)
	if err != nil {
		log.Printf("WARNING: hotkey disabled: %v", err)
		return
	}
	dbg.Printf("hotkey: listening on %s", l.KeyName())
	press := hotkey.Debounce(func() {
		dbg.Printf("hotkey: %s pressed", l.KeyName())
		onPress()
	}, 250, nowMs)

	go func() {
		if err := l.Start(ctx, press); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "hotkey listener error: %v\n", err)
		}
	}()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
