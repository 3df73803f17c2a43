package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/storage"
)

// DefaultDebounce is the quiet period after the last change before a re-sync.
const DefaultDebounce = 500 * time.Millisecond

// SyncFunc runs one full reconciliation pass.
type SyncFunc func(ctx context.Context) error

// Watch starts an fsnotify watcher on the content root and calls run after
// each burst of changes to files with the given extension, until ctx is
// cancelled. Bursts are debounced and runs never overlap.
//
// New directories created at runtime are automatically added to the watch
// list. Removals and renames are picked up by the next full pass, so the
// watcher never touches the store itself. A run that fails with
// apperr.ErrStoreUnavailable stops the watcher with that error; other
// failures are logged and the watcher keeps going.
func Watch(ctx context.Context, root, ext string, debounce time.Duration, logger *slog.Logger, run SyncFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", debounce))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(debounce)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-syncCh:
			if err := run(ctx); err != nil {
				if errors.Is(err, apperr.ErrStoreUnavailable) {
					return err
				}
				if ctx.Err() != nil {
					continue
				}
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			if hidden(filepath.Base(absPath)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					scheduleSync()
					continue
				}
			}

			// Removing or renaming a directory shows up as an event on a
			// path without the extension.
			if !strings.HasSuffix(absPath, ext) && ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			logger.Debug("watcher: change", slog.String("path", absPath), slog.String("op", ev.Op.String()))
			scheduleSync()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher, following symlinked directories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	dirs, err := storage.Dirs(root)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	return nil
}
