package pidlock

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/danmuck/swayctl/internal/testutil/testlog"
)

// deadPID is far above any default pid_max.
const deadPID = 1 << 30

func TestAcquireAndRelease(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "run", "swayctl.pid")

	lock, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil || pid != os.Getpid() {
		t.Fatalf("lock pid got=%d err=%v want=%d", pid, err, os.Getpid())
	}

	_, err = TryAcquire(path)
	var held *HeldError
	if !errors.As(err, &held) || held.PID != os.Getpid() {
		t.Fatalf("expected HeldError for own pid, got %v", err)
	}
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("HeldError should unwrap to ErrHeld")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file still present after release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for name, content := range map[string]string{
		"dead.pid":    strconv.Itoa(deadPID) + "\n",
		"garbage.pid": "not-a-pid",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		lock, err := TryAcquire(path)
		if err != nil {
			t.Fatalf("acquire over %s: %v", name, err)
		}
		_ = lock.Release()
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "swayctl.pid")
	lock, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := os.WriteFile(path, []byte("1\n"), 0o600); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("foreign lock removed: %v", err)
	}
}

func TestSignalAndWaitNoHolder(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := SignalAndWaitForRelease(context.Background(), filepath.Join(dir, "missing.pid")); err != nil {
		t.Fatalf("missing lock: %v", err)
	}
	stale := filepath.Join(dir, "stale.pid")
	_ = os.WriteFile(stale, []byte(strconv.Itoa(deadPID)), 0o600)
	if err := SignalAndWaitForRelease(context.Background(), stale); err != nil {
		t.Fatalf("stale lock: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale lock not cleared")
	}
}

func TestSignalAndWaitTerminatesHolder(t *testing.T) {
	testlog.Start(t)
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start holder: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	path := filepath.Join(t.TempDir(), "swayctl.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(cmd.Process.Pid)), 0o600); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SignalAndWaitForRelease(ctx, path); err != nil {
		t.Fatalf("signal and wait: %v", err)
	}
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatalf("holder did not exit")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file not cleared: %v", err)
	}
}

func TestSignalAndWaitRefusesSelf(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "swayctl.pid")
	lock, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()
	if err := SignalAndWaitForRelease(context.Background(), path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld when signalling self, got %v", err)
	}
}
