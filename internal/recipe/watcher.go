package recipe

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"toolforge/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a recipe file must stay quiet before a change
// is reported. Editors often write a file several times per save.
const DefaultDebounce = 500 * time.Millisecond

// WatchStats tracks watcher activity.
type WatchStats struct {
	Events    int // Filesystem events for the recipe file
	Changes   int // Debounced changes reported
	Errors    int
	LastEvent time.Time
}

// Watcher reports changes to a recipe file.
//
// The file's directory is watched rather than the file itself, so editors
// that save by renaming a temp file over the original are still seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	pending  time.Time
	logger   *zap.Logger
	stats    WatchStats
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger overrides the recipe category logger.
func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher starts watching the directory that holds path.
func NewWatcher(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipe path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Get(logging.CategoryRecipe)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	w.logger.Debug("watching recipe", zap.String("path", abs))
	return w, nil
}

// Run calls onChange once per burst of changes to the recipe file until ctx
// is done. onChange runs on the watcher goroutine; events that arrive while
// it runs are coalesced into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("recipe watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case now := <-ticker.C:
			if w.due(now) {
				w.logger.Info("recipe changed", zap.String("path", w.path))
				onChange()
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	// chmod alone does not change what runs
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("recipe event", zap.String("op", event.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Events++
	w.stats.LastEvent = time.Now()
	w.pending = w.stats.LastEvent
}

// due reports whether a pending change has been quiet for the debounce
// period, and clears it if so.
func (w *Watcher) due(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsZero() || now.Sub(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	w.stats.Changes++
	return true
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() WatchStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
