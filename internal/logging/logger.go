package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	active Config
	logger = zerolog.Nop()
	file   *os.File
)

// Apply replaces the process-wide logger.
func Apply(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	// Per-logger levels filter; the package global would otherwise stop at debug.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	active = cfg
	logger = build(cfg, file)
}

// SetLevel changes the minimum level without touching the sinks.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	active.Level = level
	logger = logger.Level(level)
}

// SetFile adds an append-only JSON log file next to the console sink.
func SetFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("logging: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = f
	logger = build(active, file)
	return nil
}

// Logger returns the current process-wide logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func build(cfg Config, f *os.File) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	var console io.Writer = out
	if !cfg.Bypass {
		console = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.DateTime,
		}
	}
	w := console
	if f != nil {
		w = zerolog.MultiLevelWriter(console, f)
	}
	ctx := zerolog.New(w).Level(cfg.Level).With().Int("pid", os.Getpid())
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func Tracef(format string, args ...any) {
	l := Logger()
	l.Trace().Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	l := Logger()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := Logger()
	l.Warn().Msgf(format, args...)
}

func Errf(format string, args ...any) {
	l := Logger()
	l.Error().Msgf(format, args...)
}

// Logf writes regardless of the configured level.
func Logf(format string, args ...any) {
	l := Logger()
	l.Log().Msgf(format, args...)
}
