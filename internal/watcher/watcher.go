package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/radio-alarm/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls back after the watched file was written, created, renamed or removed.
type Watcher struct {
	// fsWatcher delivers raw directory events.
	fsWatcher *fsnotify.Watcher
	// path is the absolute path of the watched file.
	path string
	// debounce collapses bursts of events into one callback.
	debounce time.Duration
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New starts watching the directory of path.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()

		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		path:      absPath,
		debounce:  DefaultDebounce,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers change notifications to onChange until ctx is cancelled.
// onChange runs on the calling goroutine, never concurrently with itself.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	defer func() {
		_ = w.fsWatcher.Close()
	}()

	// Stopped timer; armed by the first relevant event.
	settle := time.NewTimer(time.Hour)
	settle.Stop()

	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}

			if !w.relevant(event) {
				continue
			}

			logger.DebugKV(ctx, "Preferences file event", "op", event.Op.String())
			settle.Reset(w.debounce)

		case <-settle.C:
			onChange(ctx)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Watcher error", "error", err)
		}
	}
}

// relevant reports whether event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}

	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) ||
		event.Has(fsnotify.Remove)
}
