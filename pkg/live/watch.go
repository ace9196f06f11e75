package live

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loom-ui/loom/pkg/live/protocol"
)

// watchSettle coalesces bursts of filesystem events (editors often
// write a file several times) into one reload.
const watchSettle = 100 * time.Millisecond

// Watch pushes a reload frame to every session when a file under one
// of the given directories changes. It blocks until ctx is done.
func Watch(ctx context.Context, dirs []string, m *Manager, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := addTree(watcher, dir); err != nil {
			logger.Warn("cannot watch", "dir", dir, "error", err)
			continue
		}
		logger.Info("watching", "dir", dir)
	}

	var settle *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watch.
			if ev.Op&fsnotify.Create != 0 {
				addTree(watcher, ev.Name)
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(watchSettle, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			logger.Info("change detected, reloading sessions",
				"sessions", m.Count())
			m.Broadcast(protocol.Reload())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// addTree registers dir and every directory below it. Non-directories
// are ignored.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
