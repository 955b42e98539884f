// config.go
package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// duration decodes TOML strings such as "500ms" or "10s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Animation AnimationConfig `toml:"animation"`
	Live      LiveConfig      `toml:"live"`
	View      ViewConfig      `toml:"view"`
	Export    ExportConfig    `toml:"export"`
	Log       LogConfig       `toml:"log"`
}

type AnimationConfig struct {
	// Duration of the transition between two selected nodes.
	Duration duration `toml:"duration"`
	// FrameInterval is how often a running transition is redrawn.
	FrameInterval duration `toml:"frame_interval"`
}

type LiveConfig struct {
	RefreshInterval duration `toml:"refresh_interval"`
}

type ViewConfig struct {
	SampleType string `toml:"sample_type"`
	Module     string `toml:"module"`
}

type ExportConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

func defaultConfig() Config {
	return Config{
		Animation: AnimationConfig{
			Duration:      duration{defaultTransitionDuration},
			FrameInterval: duration{16 * time.Millisecond},
		},
		Live:   LiveConfig{RefreshInterval: duration{10 * time.Second}},
		View:   ViewConfig{SampleType: "cpu"},
		Export: ExportConfig{Width: 1600, Height: 900},
		Log:    LogConfig{Level: "info"},
	}
}

// loadConfig reads path on top of the defaults. An empty path yields the
// defaults. Keys the config does not know are reported, not rejected.
func loadConfig(path string, logger *log.Logger) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		logger.Warn("unknown config key", "key", key.String(), "file", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Animation.Duration.Duration < 0 {
		return fmt.Errorf("animation.duration must not be negative")
	}
	if c.Animation.FrameInterval.Duration <= 0 {
		return fmt.Errorf("animation.frame_interval must be positive")
	}
	if c.Live.RefreshInterval.Duration <= 0 {
		return fmt.Errorf("live.refresh_interval must be positive")
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("export size must be positive, got %dx%d", c.Export.Width, c.Export.Height)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
