package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/Danondso/drone/internal/noise"
)

// EnvPrefix prefixes environment overrides, e.g. DRONE_AUDIO_BACKEND.
const EnvPrefix = "DRONE"

// HotkeyConfig holds the global toggle key settings.
type HotkeyConfig struct {
	Enabled bool   `toml:"enabled"`
	Key     string `toml:"key"`
	Device  string `toml:"device"`
}

// AudioConfig holds output device settings.
type AudioConfig struct {
	Backend          string `toml:"backend"`
	DeviceSampleRate int    `toml:"device_sample_rate" envconfig:"device_sample_rate"`
}

// NoiseConfig holds the quick-start defaults.
type NoiseConfig struct {
	Color        string    `toml:"color"`
	SampleRate   int       `toml:"sample_rate" envconfig:"sample_rate"`
	BufferSize   int       `toml:"buffer_size" envconfig:"buffer_size"`
	Levels       []float64 `toml:"levels"` // low, medium, high gains
	FadeInMs     int64     `toml:"fade_in_ms" envconfig:"fade_in_ms"`
	FadeOutMs    int64     `toml:"fade_out_ms" envconfig:"fade_out_ms"`
	BurstSeconds float64   `toml:"burst_seconds" envconfig:"burst_seconds"`

	BurstIntervalSeconds float64 `toml:"burst_interval_seconds" envconfig:"burst_interval_seconds"`
}

// StoreConfig locates the preset library.
type StoreConfig struct {
	Path string `toml:"path"`
	Seed bool   `toml:"seed"`
}

// CustomTheme is a user-defined TUI palette. Colors left empty come from
// the default theme.
type CustomTheme struct {
	Name       string `toml:"name"`
	Accent     string `toml:"accent"`
	Frame      string `toml:"frame"`
	Detail     string `toml:"detail"`
	Alert      string `toml:"alert"`
	Idle       string `toml:"idle"`
	Pause      string `toml:"pause"`
	Background string `toml:"background"`
	Text       string `toml:"text"`
	Muted      string `toml:"muted"`
}

// Config is the top-level configuration.
type Config struct {
	Theme        string        `toml:"theme"`
	Audio        AudioConfig   `toml:"audio"`
	Noise        NoiseConfig   `toml:"noise"`
	Store        StoreConfig   `toml:"store"`
	Hotkey       HotkeyConfig  `toml:"hotkey"`
	CustomThemes []CustomTheme `toml:"custom_theme" ignored:"true"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Theme: "midnight",
		Audio: AudioConfig{
			Backend:          "portaudio",
			DeviceSampleRate: 48000,
		},
		Noise: NoiseConfig{
			Color:        "WHITE",
			SampleRate:   44100,
			BufferSize:   1024,
			Levels:       []float64{0.3, 0.6, 0.9},
			FadeInMs:     0,
			FadeOutMs:    0,
			BurstSeconds: 3,

			BurstIntervalSeconds: 7.5,
		},
		Store: StoreConfig{
			Path: "",
			Seed: true,
		},
		Hotkey: HotkeyConfig{
			Enabled: false,
			Key:     defaultHotkeyKey,
			Device:  "",
		},
	}
}

// QuickStart returns the settings for quick-start level i (0 low, 1 medium,
// 2 high). Out-of-range levels clamp to the nearest one.
func (n NoiseConfig) QuickStart(level int) noise.Settings {
	gain := 0.5
	if len(n.Levels) > 0 {
		gain = n.Levels[min(max(level, 0), len(n.Levels)-1)]
	}
	return noise.Settings{
		Gain:       gain,
		SampleRate: n.SampleRate,
		BufferSize: n.BufferSize,
		Color:      noise.ParseColor(n.Color),
		FadeInMs:   n.FadeInMs,
		FadeOutMs:  n.FadeOutMs,
	}
}

// StorePath returns the configured library path or the default one.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DefaultDataDir(), "library.toml")
}

// DefaultPath returns the default config file path (~/.config/drone/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "drone", "config.toml")
}

// DefaultDataDir returns the default data directory (~/.local/share/drone).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "drone")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place so a crash mid-write cannot
// corrupt the existing config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".drone-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path, then applies DRONE_* environment
// overrides. If the file does not exist, the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from DRONE_* environment variables. Unset
// variables leave fields unchanged.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("apply environment: %w", err)
	}
	return nil
}
