package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/natefinch/atomic"
)

// HomeEnv overrides the timegrid directory (used by tests and portable installs).
const HomeEnv = "TIMEGRID_HOME"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	User                   string  `toml:"user"`
	PixelsPerMinute        float64 `toml:"pixels_per_minute"`
	VisibleDaysStart       int     `toml:"visible_days_start"` // 0 = Sunday
	VisibleDaysEnd         int     `toml:"visible_days_end"`
	SearchDebounceMS       int     `toml:"search_debounce_ms"`
	ResultLimit            int     `toml:"result_limit"`
	DefaultDurationMinutes int     `toml:"default_duration_minutes"`
	DefaultComment         string  `toml:"default_comment"`
	RequestTimeoutSeconds  int     `toml:"request_timeout_seconds"`
	LogLevel               string  `toml:"log_level"`
	DatabasePath           string  `toml:"database_path,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		User:                   currentUsername(),
		PixelsPerMinute:        0.1,
		VisibleDaysStart:       1,
		VisibleDaysEnd:         5,
		SearchDebounceMS:       250,
		ResultLimit:            20,
		DefaultDurationMinutes: 60,
		RequestTimeoutSeconds:  10,
		LogLevel:               "info",
	}
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "me"
}

// SearchDebounce is the quiet period before a typed query is searched.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// RequestTimeout bounds every storage request. Unset means ten seconds.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks the values the grid and editor depend on.
func (c *Config) Validate() error {
	if c.PixelsPerMinute <= 0 {
		return fmt.Errorf("%w: pixels_per_minute must be positive, got %v", ErrInvalid, c.PixelsPerMinute)
	}
	if c.VisibleDaysStart < 0 || c.VisibleDaysStart > 6 || c.VisibleDaysEnd < 0 || c.VisibleDaysEnd > 6 {
		return fmt.Errorf("%w: visible days must be between 0 and 6", ErrInvalid)
	}
	if c.VisibleDaysStart > c.VisibleDaysEnd {
		return fmt.Errorf("%w: visible_days_start is after visible_days_end", ErrInvalid)
	}
	if c.SearchDebounceMS < 0 {
		return fmt.Errorf("%w: search_debounce_ms must not be negative", ErrInvalid)
	}
	if c.DefaultDurationMinutes <= 0 || c.DefaultDurationMinutes > 1440 {
		return fmt.Errorf("%w: default_duration_minutes must be within (0, 1440]", ErrInvalid)
	}
	return nil
}

func TimegridDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return homedir.Expand(dir)
	}
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".timegrid"), nil
}

func ConfigPath() (string, error) {
	dir, err := TimegridDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func DefaultDatabasePath() (string, error) {
	dir, err := TimegridDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db", "timegrid.sqlite"), nil
}

func LogPath() (string, error) {
	dir, err := TimegridDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "timegrid.log"), nil
}

func EnsureDirectories() error {
	dir, err := TimegridDir()
	if err != nil {
		return err
	}

	// Create main directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create db subdirectory
	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	return nil
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	if cfg.DatabasePath != "" {
		expanded, err := homedir.Expand(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config atomically so a crash never leaves a truncated file.
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}

	return atomic.WriteFile(configPath, &buf)
}

// ResolveDatabasePath returns the configured database path or the default one.
func (c *Config) ResolveDatabasePath() (string, error) {
	if c.DatabasePath != "" {
		return c.DatabasePath, nil
	}
	return DefaultDatabasePath()
}
