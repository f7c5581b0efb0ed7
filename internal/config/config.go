// Package config loads the swayctl TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/pidlock"
	"github.com/danmuck/swayctl/internal/protocol"
	"github.com/danmuck/swayctl/internal/provider"
)

const AppName = "swayctl"

// Config is the effective runtime configuration.
type Config struct {
	Provider       provider.Provider
	SocketPath     string
	Events         []protocol.EventType
	CloseTimeout   time.Duration
	ConnectTimeout time.Duration
	// MaxConnectAttempts 0 means one attempt; negative retries until stopped.
	MaxConnectAttempts int
	LockFile           string
	LogLevel           string
	LogFile            string
	MetricsAddr        string
}

type fileConfig struct {
	Provider           string   `toml:"provider"`
	SocketPath         string   `toml:"socket_path"`
	Events             []string `toml:"events"`
	CloseTimeout       string   `toml:"close_timeout"`
	ConnectTimeout     string   `toml:"connect_timeout"`
	MaxConnectAttempts int      `toml:"max_connect_attempts"`
	LockFile           string   `toml:"lock_file"`
	LogLevel           string   `toml:"log_level"`
	LogFile            string   `toml:"log_file"`
	MetricsAddr        string   `toml:"metrics_addr"`
}

func Default() Config {
	p, err := provider.FromEnv()
	if err != nil {
		p = provider.Sway
	}
	return Config{
		Provider:           p,
		Events:             []protocol.EventType{protocol.EventWindow},
		CloseTimeout:       5 * time.Second,
		ConnectTimeout:     5 * time.Second,
		MaxConnectAttempts: 1,
		LockFile:           pidlock.DefaultPath(AppName),
		LogLevel:           "warn",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/swayctl/config.toml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// Load reads path on top of Default. An empty path loads DefaultPath, which
// may be missing.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		logging.Debugf("config.Load no config file path=%s", path)
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logging.Warnf("config.Load ignoring unknown keys path=%s keys=%v", path, undecoded)
	}

	if meta.IsDefined("provider") {
		p, err := provider.Parse(raw.Provider)
		if err != nil {
			return Config{}, fmt.Errorf("parse provider: %w", err)
		}
		cfg.Provider = p
	}
	if meta.IsDefined("socket_path") {
		cfg.SocketPath = strings.TrimSpace(raw.SocketPath)
	}
	if meta.IsDefined("events") {
		events, err := ParseEvents(raw.Events)
		if err != nil {
			return Config{}, err
		}
		cfg.Events = events
	}
	if meta.IsDefined("close_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CloseTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse close_timeout: %w", err)
		}
		cfg.CloseTimeout = d
	}
	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("lock_file") {
		cfg.LockFile = strings.TrimSpace(raw.LockFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s invalid: %w", path, err)
	}
	return cfg, nil
}

// ParseEvents resolves event names, skipping blanks and duplicates.
func ParseEvents(names []string) ([]protocol.EventType, error) {
	out := make([]protocol.EventType, 0, len(names))
	seen := make(map[protocol.EventType]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ev, err := protocol.ParseEvent(name)
		if err != nil {
			return nil, err
		}
		if seen[ev] {
			continue
		}
		seen[ev] = true
		out = append(out, ev)
	}
	return out, nil
}

func (c Config) Validate() error {
	if _, err := provider.Parse(string(c.Provider)); err != nil {
		return err
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("events must not be empty")
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close_timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if strings.TrimSpace(c.LockFile) == "" {
		return fmt.Errorf("lock_file is required")
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("unknown log_level %q", c.LogLevel)
		}
	}
	return nil
}
