// Package config loads xedit settings from a TOML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel   = "info"
	DefaultMaxHistory = 0 // unbounded
)

// Config holds the tool's combined configuration.
type Config struct {
	Logger  LoggerConfig  `toml:"logger"`
	History HistoryConfig `toml:"history"`

	// Unknown lists keys in the file that no setting matched.
	Unknown []string `toml:"-"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
	// File is the path logs are appended to. Empty or "-" means stderr.
	File string `toml:"file"`
}

// HistoryConfig holds undo log settings.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"` // 0 keeps every entry
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level: DefaultLogLevel,
		},
		History: HistoryConfig{
			MaxEntries: DefaultMaxHistory,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("error checking config file '%s': %w", path, err)
	}

	metadata, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return NewDefaultConfig(), fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	for _, key := range metadata.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	cfg.validate()
	return cfg, nil
}

// validate resets invalid values to defaults.
func (c *Config) validate() {
	if _, ok := parseLevel(c.Logger.Level); !ok {
		c.Logger.Level = DefaultLogLevel
	}
	if c.History.MaxEntries < 0 {
		c.History.MaxEntries = DefaultMaxHistory
	}
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// NewLogger builds a text logger writing to w at the configured level.
func (c LoggerConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Open returns the configured log destination. The returned closer must be
// called once logging is done.
func (c LoggerConfig) Open() (io.Writer, func() error, error) {
	if c.File == "" || c.File == "-" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file '%s': %w", c.File, err)
	}
	return f, f.Close, nil
}
