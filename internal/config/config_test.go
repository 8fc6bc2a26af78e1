package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint64(1), cfg.Session.Seed)
	assert.Equal(t, 10*time.Second, cfg.Session.OutcomeDelay)
	assert.Equal(t, "realtime", cfg.Loop.Mode)
	assert.Equal(t, 16*time.Millisecond, cfg.Loop.Tick)
	assert.Equal(t, time.Duration(0), cfg.Loop.Duration)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, 10, cfg.Catalog.Limit)
	assert.Equal(t, uint(4), cfg.Catalog.MaxTries)

	start, err := cfg.StartTime()
	require.NoError(t, err)
	assert.True(t, start.IsZero())
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asteroid.json")
	body := `{
		"log": {"level": "debug", "format": "json"},
		"session": {"seed": 7, "startDate": "2025-10-26", "outcomeDelay": "2s"},
		"loop": {"mode": "accelerated", "tick": "10ms", "duration": "5m"},
		"tracing": {"enabled": true, "exporter": "OTLP", "sampleRatio": 0.5}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(7), cfg.Session.Seed)
	assert.Equal(t, 2*time.Second, cfg.Session.OutcomeDelay)
	assert.Equal(t, "accelerated", cfg.Loop.Mode)
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.Tick)
	assert.Equal(t, 5*time.Minute, cfg.Loop.Duration)

	start, err := cfg.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 26, 0, 0, 0, 0, time.UTC), start)

	tr := cfg.TracingSettings()
	assert.True(t, tr.Enabled)
	assert.Equal(t, "otlp", tr.Exporter)
	assert.Equal(t, 0.5, tr.SampleRatio)

	lc := cfg.Logging()
	assert.Equal(t, "json", lc.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asteroid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  mode: accelerated\nsession:\n  seed: 3\n"), 0o644))

	t.Setenv("ASTEROID_LOOP_MODE", "realtime")
	t.Setenv("ASTEROID_SESSION_SEED", "99")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "realtime", cfg.Loop.Mode)
	assert.Equal(t, uint64(99), cfg.Session.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/asteroid.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Loop.Mode = "warp" }},
		{"zero tick", func(c *Config) { c.Loop.Tick = 0 }},
		{"negative delay", func(c *Config) { c.Session.OutcomeDelay = -time.Second }},
		{"ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
		{"limit", func(c *Config) { c.Catalog.Limit = -1 }},
		{"date", func(c *Config) { c.Session.StartDate = "next tuesday" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
