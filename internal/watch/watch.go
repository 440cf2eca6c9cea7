// Package watch re-runs a callback when any of a set of files changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a wrapper around fsnotify.Event
type Event struct {
	Name string
	Op   fsnotify.Op
}

// Watcher reports debounced changes to a fixed set of files. It watches
// their parent directories so editors that replace files on save are
// still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	onEvent  func(Event)
	logger   *slog.Logger
}

// New creates a watcher for files
func New(files []string, debounce time.Duration, onEvent func(Event), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := &Watcher{
		watcher:  w,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		onEvent:  onEvent,
		logger:   logger,
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		watched.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return watched, nil
}

// Run delivers events until ctx ends. Bursts of events within the
// debounce window collapse into one callback with the last event.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			// Ignore chmod and other meta events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[abs]; !ok {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			ev := Event{Name: abs, Op: event.Op}
			timer = time.AfterFunc(w.debounce, func() {
				w.onEvent(ev)
			})
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}
