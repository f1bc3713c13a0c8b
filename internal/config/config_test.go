package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.PixelsPerMinute)
	assert.Equal(t, 250, cfg.SearchDebounceMS)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err, "should write the default config")
	_, err = os.Stat(filepath.Join(dir, "db"))
	assert.NoError(t, err, "should create the db directory")
}

func TestLoad_ReadsSavedValues(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	require.NoError(t, EnsureDirectories())

	cfg := DefaultConfig()
	cfg.User = "bob"
	cfg.PixelsPerMinute = 0.25
	cfg.VisibleDaysStart = 0
	cfg.VisibleDaysEnd = 6
	require.NoError(t, Save(cfg))

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", got.User)
	assert.Equal(t, 0.25, got.PixelsPerMinute)
	assert.Equal(t, 6, got.VisibleDaysEnd)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	require.NoError(t, EnsureDirectories())

	err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("pixels_per_minute = 0\n"), 0644)
	require.NoError(t, err)

	_, err = Load()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative zoom", func(c *Config) { c.PixelsPerMinute = -1 }, false},
		{"weekday out of range", func(c *Config) { c.VisibleDaysEnd = 7 }, false},
		{"start after end", func(c *Config) { c.VisibleDaysStart = 5; c.VisibleDaysEnd = 1 }, false},
		{"duration past midnight", func(c *Config) { c.DefaultDurationMinutes = 1441 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
