//go:build linux

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/gordonklaus/portaudio"
	"golang.org/x/sys/unix"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/hotkey"
)

// createListener opens the evdev keyboard that carries the toggle key.
func createListener(cfg *config.Config, dbg *log.Logger) (hotkey.Listener, error) {
	code, err := hotkey.KeyCodeFromName(cfg.Hotkey.Key)
	if err != nil {
		return nil, err
	}
	dev, err := hotkey.FindKeyboard(cfg.Hotkey.Device)
	if err != nil {
		return nil, withInputGroupHint(err, cfg.Hotkey.Device)
	}
	dbg.Printf("hotkey: toggle on %s (code %d) from %s", cfg.Hotkey.Key, code, dev.Path())
	return hotkey.NewListener(dev, code, cfg.Hotkey.Key), nil
}

// withInputGroupHint explains the usual cause when no keyboard can be read:
// /dev/input/event* is only readable by the input group.
func withInputGroupHint(err error, device string) error {
	if device == "" || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w (is your user in the input group?)", err)
	}
	return err
}

func initPortAudio() error {
	return silenceStderr(portaudio.Initialize)
}

// silenceStderr runs fn with fd 2 pointed at /dev/null. ALSA and JACK
// print device scan errors there while portaudio enumerates devices.
func silenceStderr(fn func() error) error {
	saved, err := unix.Dup(unix.Stderr)
	if err != nil {
		return fn()
	}
	defer unix.Close(saved) //nolint:errcheck

	null, err := unix.Open(os.DevNull, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fn()
	}
	dupErr := unix.Dup3(null, unix.Stderr, 0)
	_ = unix.Close(null)
	if dupErr != nil {
		return fn()
	}
	defer unix.Dup3(saved, unix.Stderr, 0) //nolint:errcheck

	return fn()
}
