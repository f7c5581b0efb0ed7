package ipc

import (
	"context"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/protocol"
)

// BackoffConfig defines retry backoff behavior between dial attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// DialConfig controls how Connect reaches the socket.
type DialConfig struct {
	ConnectTimeout time.Duration
	// MaxAttempts 0 uses the default of one attempt; a negative value retries
	// until ctx is done.
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultDialConfig() DialConfig {
	return DialConfig{
		ConnectTimeout: 5 * time.Second,
		MaxAttempts:    1,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c DialConfig) withDefaults() DialConfig {
	def := DefaultDialConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Connect dials the Unix socket at path and returns a subscribed Conn.
func Connect(ctx context.Context, path string, opts Options) (*Conn, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, protocol.ErrNoSocketPath
	}
	opts = opts.withDefaults()
	conn, err := dialUnix(ctx, path, opts.Dial)
	if err != nil {
		return nil, err
	}
	logging.Infof("ipc.Connect connected path=%q", path)
	return New(conn, opts)
}

func dialUnix(ctx context.Context, path string, cfg DialConfig) (net.Conn, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	var attempt int
	for {
		attempt++
		conn, err := dialer.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		logging.Warnf("ipc.Connect dial attempt=%d path=%q err=%v", attempt, path, err)
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return nil, err
		}
		timer := time.NewTimer(nextBackoffDelay(cfg.Backoff, attempt, rng))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// nextBackoffDelay returns the delay after attempt N (1-based).
func nextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(math.Max(cfg.Multiplier, 1.0), float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter && rng != nil {
		delay *= 0.5 + rng.Float64()
	}
	return time.Duration(delay)
}
