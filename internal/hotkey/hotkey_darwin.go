//go:build darwin

package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.design/x/hotkey"
)

var modifierMap = map[string]hotkey.Modifier{
	"OPTION": hotkey.ModOption,
	"ALT":    hotkey.ModOption,
	"CTRL":   hotkey.ModCtrl,
	"SHIFT":  hotkey.ModShift,
	"CMD":    hotkey.ModCmd,
}

// functionKeys may be bound without a modifier.
var functionKeys = map[string]hotkey.Key{
	"F1":  hotkey.KeyF1,
	"F2":  hotkey.KeyF2,
	"F3":  hotkey.KeyF3,
	"F4":  hotkey.KeyF4,
	"F5":  hotkey.KeyF5,
	"F6":  hotkey.KeyF6,
	"F7":  hotkey.KeyF7,
	"F8":  hotkey.KeyF8,
	"F9":  hotkey.KeyF9,
	"F10": hotkey.KeyF10,
	"F11": hotkey.KeyF11,
	"F12": hotkey.KeyF12,
	"F13": hotkey.KeyF13,
	"F14": hotkey.KeyF14,
	"F15": hotkey.KeyF15,
	"F16": hotkey.KeyF16,
	"F17": hotkey.KeyF17,
	"F18": hotkey.KeyF18,
	"F19": hotkey.KeyF19,
	"F20": hotkey.KeyF20,
}

// comboKeys need at least one modifier.
var comboKeys = map[string]hotkey.Key{
	"SPACE":  hotkey.KeySpace,
	"RETURN": hotkey.KeyReturn,
	"ESCAPE": hotkey.KeyEscape,
	"TAB":    hotkey.KeyTab,
	"P":      hotkey.KeyP,
	"N":      hotkey.KeyN,
	"S":      hotkey.KeyS,
	"0":      hotkey.Key0,
	"1":      hotkey.Key1,
	"2":      hotkey.Key2,
	"3":      hotkey.Key3,
}

func lookupKey(name string) (hotkey.Key, bool) {
	if k, ok := functionKeys[name]; ok {
		return k, true
	}
	k, ok := comboKeys[name]
	return k, ok
}

// ParseHotkeyCombo parses a toggle key like "F8" or "Ctrl+Option+P" into
// modifiers, a key and a display name. Function keys may stand alone;
// anything else needs a modifier. Linux-style names such as "KEY_F8" are
// accepted so one config file works on both platforms.
func ParseHotkeyCombo(combo string) ([]hotkey.Modifier, hotkey.Key, string, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return nil, 0, "", fmt.Errorf("empty hotkey combo")
	}
	upper := strings.ToUpper(combo)

	if name, ok := strings.CutPrefix(upper, "KEY_"); ok {
		key, ok := functionKeys[name]
		if !ok {
			return nil, 0, "", fmt.Errorf("unknown evdev key: %s (on macOS only KEY_F1 to KEY_F20 map directly)", combo)
		}
		return nil, key, combo, nil
	}

	parts := strings.Split(upper, "+")
	keyStr := strings.TrimSpace(parts[len(parts)-1])
	if len(parts) == 1 {
		key, ok := functionKeys[keyStr]
		if !ok {
			return nil, 0, "", fmt.Errorf("hotkey %s needs a modifier (e.g. Option+Space) unless it is a function key", combo)
		}
		return nil, key, combo, nil
	}

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		part = strings.TrimSpace(part)
		mod, ok := modifierMap[part]
		if !ok {
			return nil, 0, "", fmt.Errorf("unknown modifier: %s (valid: Option, Alt, Ctrl, Shift, Cmd)", part)
		}
		mods = append(mods, mod)
	}

	key, ok := lookupKey(keyStr)
	if !ok {
		return nil, 0, "", fmt.Errorf("unknown key: %s", keyStr)
	}
	return mods, key, combo, nil
}

type darwinListener struct {
	mods    []hotkey.Modifier
	key     hotkey.Key
	keyName string

	mu sync.Mutex
	hk *hotkey.Hotkey
}

// NewListener creates a Listener for the given modifiers and key.
func NewListener(mods []hotkey.Modifier, key hotkey.Key, keyName string) Listener {
	return &darwinListener{mods: mods, key: key, keyName: keyName}
}

func (l *darwinListener) Start(ctx context.Context, onPress func()) error {
	hk := hotkey.New(l.mods, l.key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w (grant Accessibility permissions in System Settings > Privacy & Security)", l.keyName, err)
	}
	l.mu.Lock()
	l.hk = hk
	l.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-hk.Keydown():
			if onPress != nil {
				onPress()
			}
		}
	}
}

// Stop unregisters the hotkey.
func (l *darwinListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hk != nil {
		_ = l.hk.Unregister()
		l.hk = nil
	}
}

func (l *darwinListener) KeyName() string {
	return l.keyName
}
