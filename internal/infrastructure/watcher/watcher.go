// Package watcher reports changes to a single coverage report file.
package watcher

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors report files for rewrites.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	targets map[string]struct{}
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last change before an event fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a new file watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
		logger:   log.New(io.Discard),
		targets:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch registers path. The parent directory is watched so reports that are
// replaced rather than rewritten in place are still seen.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	w.mu.Lock()
	w.targets[abs] = struct{}{}
	w.mu.Unlock()
	return nil
}

// Events returns a channel that emits once a watched file has settled after
// a change. It is closed when ctx ends or the watcher is closed.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isWriteEvent(event.Op) || !w.isTarget(event.Name) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				timerCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "err", err)
			}
		}
	}()

	return out
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) isTarget(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.targets[abs]
	return ok
}

func isWriteEvent(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create)
}
