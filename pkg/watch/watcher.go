// Package watch triggers engine runs when the source tree changes.
//
// It watches the source directory tree with fsnotify and debounces events:
// a run fires only after the tree stays quiet for the configured interval,
// so a burst of incoming media produces one run, not dozens. New
// subdirectories are added to the watch as they appear.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Runner is one engine pass, shared with the schedule package's contract:
// errors are logged and the watcher keeps going.
type Runner func(ctx context.Context) error

// Watcher debounces filesystem events on a tree into engine runs.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// New creates a watcher for the tree rooted at root.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		watcher:  fsw,
		logger:   slog.Default().With("component", "watch"),
	}, nil
}

// Watch blocks, running the Runner after each quiet period, until ctx is
// cancelled.
func (w *Watcher) Watch(ctx context.Context, run Runner) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	runCh := make(chan struct{}, 1)
	w.logger.Info("watching source tree",
		"root", w.root,
		"debounce", w.debounce.String(),
	)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.logger.Info("watcher stopped")
			return nil

		case <-runCh:
			w.logger.Info("source tree settled, starting run")
			if err := run(ctx); err != nil {
				w.logger.Error("triggered run failed", "error", err)
			}

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("unable to watch new subtree",
							"path", event.Name, "error", err)
					}
				}
			}
			w.reset(runCh)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite errors.
			w.logger.Error("watch error", "error", err)
		}
	}
}

// reset re-arms the debounce timer; when it fires, a run is requested
// unless one is already pending.
func (w *Watcher) reset(runCh chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case runCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// addTree watches dir and every subdirectory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unwatchable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}
