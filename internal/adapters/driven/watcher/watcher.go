// Package watcher reloads the newest index version when another process
// publishes one into the index directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reloading.
const DefaultDebounce = 500 * time.Millisecond

const versionPrefix = "index_"

// Watcher follows an index directory and calls LoadLatestIndex whenever a
// version directory newer than the current one appears.
type Watcher struct {
	dir      string
	index    driven.VectorIndex
	debounce time.Duration
	onReload func(name string, err error)
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnReload registers a callback run after every reload attempt with the
// version now current.
func WithOnReload(fn func(name string, err error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New starts watching dir, creating it if needed.
func New(dir string, index driven.VectorIndex, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("watcher: create index directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watcher: watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		index:    index,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			name, ok := w.versionCreated(event)
			if !ok {
				continue
			}
			logger.Debug("watcher: %s appeared", name)
			if name > pending {
				pending = name
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)

		case <-timer.C:
			w.reload(ctx, pending)
			pending = ""
		}
	}
}

// versionCreated returns the version name an event published, if any.
func (w *Watcher) versionCreated(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if !strings.HasPrefix(name, versionPrefix) {
		return "", false
	}
	if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
		return "", false
	}
	return name, true
}

func (w *Watcher) reload(ctx context.Context, newest string) {
	// The legacy pair and the empty index never sort against version names.
	if current := w.index.Current().Name(); strings.HasPrefix(current, versionPrefix) && current >= newest {
		logger.Debug("watcher: %s already current", current)
		return
	}

	err := w.index.LoadLatestIndex(ctx)
	name := w.index.Current().Name()
	if err != nil {
		logger.Warn("watcher: reload index: %v", err)
	} else {
		logger.Info("watcher: now serving %s", name)
	}
	if w.onReload != nil {
		w.onReload(name, err)
	}
}
