// Package watch runs the long-lived event watcher: it holds the single
// instance lock, keeps one subscribed IPC connection and reports events until
// it is told to stop.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/swayctl/internal/dispatch"
	"github.com/danmuck/swayctl/internal/ipc"
	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/observability"
	"github.com/danmuck/swayctl/internal/pidlock"
	"github.com/danmuck/swayctl/internal/protocol"
)

const DefaultTakeoverTimeout = 10 * time.Second

var ErrInvalidConfig = errors.New("watch: invalid config")

type Config struct {
	SocketPath   string
	Events       []protocol.EventType
	CloseTimeout time.Duration
	Dial         ipc.DialConfig
	LockFile     string
	// MetricsAddr enables the /metrics endpoint when set.
	MetricsAddr string
	// TakeoverTimeout bounds the wait for a previous instance to exit.
	TakeoverTimeout time.Duration
	Out             io.Writer
}

type Service struct {
	cfg Config

	outMu sync.Mutex
}

func NewService(cfg Config) *Service {
	if cfg.TakeoverTimeout <= 0 {
		cfg.TakeoverTimeout = DefaultTakeoverTimeout
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Service{cfg: cfg}
}

// Run blocks until ctx is done or the window manager goes away.
func (s *Service) Run(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.LockFile) == "" {
		return fmt.Errorf("%w: lock file is required", ErrInvalidConfig)
	}
	lock, err := s.acquire(ctx)
	if err != nil {
		return err
	}

	var metrics *http.Server
	if addr := strings.TrimSpace(s.cfg.MetricsAddr); addr != "" {
		metrics = observability.ServeMetrics(addr)
	}
	defer func() {
		if metrics == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	d := dispatch.New()
	s.register(d)

	conn, err := ipc.Connect(ctx, s.cfg.SocketPath, ipc.Options{
		Events:       s.cfg.Events,
		Dispatcher:   d,
		CloseTimeout: s.cfg.CloseTimeout,
		Dial:         s.cfg.Dial,
	})
	if err != nil {
		_ = lock.Release()
		return err
	}
	conn.OnClosingAck(func(done func()) {
		defer done()
		if err := lock.Release(); err != nil {
			logging.Warnf("watch.Service release lock err=%v", err)
		}
	})
	conn.OnClosed(func() {
		logging.Infof("watch.Service connection closed")
	})
	logging.Infof("watch.Service ready socket=%q events=%v lock=%s",
		s.cfg.SocketPath, protocol.EventNames(s.cfg.Events), lock.Path())

	select {
	case <-ctx.Done():
		logging.Infof("watch.Service stopping")
		return conn.Close()
	case <-conn.Done():
		return nil
	}
}

// acquire takes the lock, asking a running instance to exit first.
func (s *Service) acquire(ctx context.Context) (*pidlock.Lock, error) {
	lock, err := pidlock.TryAcquire(s.cfg.LockFile)
	var held *pidlock.HeldError
	if !errors.As(err, &held) {
		return lock, err
	}
	logging.Warnf("watch.Service replacing running instance pid=%d", held.PID)
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.TakeoverTimeout)
	defer cancel()
	if err := pidlock.SignalAndWaitForRelease(waitCtx, s.cfg.LockFile); err != nil {
		return nil, err
	}
	return pidlock.TryAcquire(s.cfg.LockFile)
}

func (s *Service) register(d *dispatch.Dispatcher) {
	d.Register(protocol.EventWindow, dispatch.WindowChange("", func(ev protocol.WindowEvent) {
		c := ev.Container
		app := c.AppID
		if app == "" && c.WindowProperties != nil {
			app = c.WindowProperties.Class
		}
		switch ev.Change {
		case protocol.WindowChangeFocus:
			logging.Infof("watch.Service focus id=%d pid=%d app=%q", c.ID, c.PID, app)
		case protocol.WindowChangeMove:
			logging.Infof("watch.Service move id=%d app=%q", c.ID, app)
		}
		s.printf("window\t%s\t%d\t%s\t%s\n", ev.Change, c.ID, app, c.Name)
	}))
	for _, kind := range s.cfg.Events {
		if kind == protocol.EventWindow {
			continue
		}
		d.Register(kind, func(ev dispatch.Event) {
			s.printf("%s\t%s\n", ev.Kind, ev.Payload)
		})
	}
}

func (s *Service) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = fmt.Fprintf(s.cfg.Out, format, args...)
}

// Stop signals the instance holding lockFile and waits for it to exit.
func Stop(ctx context.Context, lockFile string) error {
	return pidlock.SignalAndWaitForRelease(ctx, lockFile)
}
