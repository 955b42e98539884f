package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icicle.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.Animation.Duration.Duration)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[animation]
duration = "250ms"

[live]
refresh_interval = "2s"

[view]
sample_type = "alloc_space"
module = "github.com/acme/app"

[log]
level = "debug"
`)

	cfg, err := loadConfig(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Animation.Duration.Duration)
	assert.Equal(t, 16*time.Millisecond, cfg.Animation.FrameInterval.Duration, "unset keys keep their defaults")
	assert.Equal(t, 2*time.Second, cfg.Live.RefreshInterval.Duration)
	assert.Equal(t, "alloc_space", cfg.View.SampleType)
	assert.Equal(t, "github.com/acme/app", cfg.View.Module)
	assert.Equal(t, 1600, cfg.Export.Width)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigWarnsOnUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[animation]
duraton = "1s"
`)
	logger, buf := bufferLogger()

	cfg, err := loadConfig(path, logger)
	require.NoError(t, err)
	assert.Equal(t, defaultTransitionDuration, cfg.Animation.Duration.Duration)
	assert.Contains(t, buf.String(), "unknown config key")
	assert.Contains(t, buf.String(), "animation.duraton")
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "[animation]\nduration = \"soon\"", "duration"},
		{"negative duration", "[animation]\nduration = \"-1s\"", "must not be negative"},
		{"zero frame interval", "[animation]\nframe_interval = \"0s\"", "frame_interval"},
		{"zero refresh", "[live]\nrefresh_interval = \"0s\"", "refresh_interval"},
		{"export size", "[export]\nwidth = 0", "export size"},
		{"log level", "[log]\nlevel = \"loud\"", "log.level"},
		{"syntax", "[animation\n", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body), discardLogger())
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), discardLogger())
	require.Error(t, err)
}

func TestDurationText(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
