//go:build darwin

package main

import (
	"log"

	"github.com/gordonklaus/portaudio"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/hotkey"
)

// createListener registers the toggle combo with the system hotkey API.
func createListener(cfg *config.Config, dbg *log.Logger) (hotkey.Listener, error) {
	mods, key, name, err := hotkey.ParseHotkeyCombo(cfg.Hotkey.Key)
	if err != nil {
		return nil, err
	}
	dbg.Printf("hotkey: toggle on %s", name)
	return hotkey.NewListener(mods, key, name), nil
}

func initPortAudio() error {
	return portaudio.Initialize()
}
