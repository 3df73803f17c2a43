package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/docsync/internal/apperr"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatch(t *testing.T, root string, run SyncFunc) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, root, ".md", 50*time.Millisecond, quietLogger(), run) }()
	t.Cleanup(cancel)
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestWatcher_NewFileTriggersSync(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "new file did not trigger a sync")
}

func TestWatcher_BurstIsDebounced(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(root, fmt.Sprintf("f%d.md", i)), []byte("x"), 0o644)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "burst did not trigger a sync")
	time.Sleep(200 * time.Millisecond)
	if n := runs.Load(); n > 2 {
		t.Errorf("runs = %d, want the burst coalesced", n)
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, ".hidden.md"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("runs = %d, want 0", n)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	sub := filepath.Join(root, "docs")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "new directory did not trigger a sync")

	before := runs.Load()
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() > before
	}, "file in new subdir did not trigger a sync")
}

func TestWatcher_StoreUnavailableStops(t *testing.T) {
	root := t.TempDir()
	_, done := startWatch(t, root, func(context.Context) error {
		return fmt.Errorf("sync: %w", apperr.ErrStoreUnavailable)
	})

	_ = os.WriteFile(filepath.Join(root, "a.md"), []byte("x"), 0o644)

	select {
	case err := <-done:
		if !errors.Is(err, apperr.ErrStoreUnavailable) {
			t.Errorf("err = %v, want ErrStoreUnavailable", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	cancel, done := startWatch(t, root, func(context.Context) error { return nil })
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
