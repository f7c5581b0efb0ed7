// Package pidlock is a single-instance lock backed by a file holding the
// owner's process id.
package pidlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/danmuck/swayctl/internal/logging"
)

var ErrHeld = errors.New("pidlock: lock is held")

const pollInterval = 50 * time.Millisecond

// HeldError reports the live process currently holding a lock.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("pidlock: %s held by pid %d", e.Path, e.PID)
}

func (e *HeldError) Unwrap() error {
	return ErrHeld
}

// Lock is an acquired lock file.
type Lock struct {
	path string
	pid  int
}

func (l *Lock) Path() string { return l.path }

// DefaultPath places the lock under XDG_RUNTIME_DIR, falling back to the temp
// directory.
func DefaultPath(name string) string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name+".pid")
}

// TryAcquire creates path exclusively and writes the current pid to it. A lock
// left behind by a dead process is replaced.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("pidlock: ensure dir: %w", err)
	}
	pid := os.Getpid()
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := file.WriteString(strconv.Itoa(pid) + "\n")
			cerr := file.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("pidlock: write %s: %w", path, errors.Join(werr, cerr))
			}
			logging.Debugf("pidlock.TryAcquire acquired path=%s pid=%d", path, pid)
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("pidlock: create %s: %w", path, err)
		}
		holder, rerr := ReadPID(path)
		if rerr == nil && Alive(holder) {
			return nil, &HeldError{Path: path, PID: holder}
		}
		logging.Warnf("pidlock.TryAcquire removing stale lock path=%s holder=%d", path, holder)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("pidlock: remove stale %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %s changed while acquiring", ErrHeld, path)
}

// Release removes the lock file if it still belongs to this lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	holder, err := ReadPID(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && holder != l.pid {
		logging.Warnf("pidlock.Release lock taken over path=%s holder=%d", l.path, holder)
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("pidlock: release %s: %w", l.path, err)
	}
	logging.Debugf("pidlock.Release released path=%s", l.path)
	return nil
}

// ReadPID returns the pid stored at path.
func ReadPID(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pidlock: bad pid in %s: %q", path, strings.TrimSpace(string(raw)))
	}
	return pid, nil
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// SignalAndWaitForRelease sends SIGTERM to the holder of path and waits until
// the lock file is gone or the holder has exited. It returns nil when there is
// no live holder.
func SignalAndWaitForRelease(ctx context.Context, path string) error {
	pid, err := ReadPID(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil || !Alive(pid) {
		logging.Infof("pidlock.SignalAndWaitForRelease clearing stale lock path=%s", path)
		_ = os.Remove(path)
		return nil
	}
	if pid == os.Getpid() {
		return &HeldError{Path: path, PID: pid}
	}

	logging.Infof("pidlock.SignalAndWaitForRelease signalling pid=%d", pid)
	if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("pidlock: signal pid %d: %w", pid, err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if !Alive(pid) {
			_ = os.Remove(path)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("pidlock: waiting for pid %d: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
}
