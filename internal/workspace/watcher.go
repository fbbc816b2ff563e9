package workspace

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/vstore/internal/errors"
)

// WatcherConfig configures a seed file watcher.
type WatcherConfig struct {
	// Path is the seed file to watch.
	Path string

	// Debounce is the quiet period after the last change before the seed
	// is reloaded.
	Debounce time.Duration

	// Logger receives reload results. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Watcher reloads a seed file when it changes on disk.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temporary file are seen too.
type Watcher struct {
	config   WatcherConfig
	onChange func(Seed)
	onError  func(error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for config.Path.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{config: config}
}

// OnChange sets the callback that receives each successfully loaded seed.
func (w *Watcher) OnChange(fn func(Seed)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// OnError sets the callback for seeds that fail to load.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.markStopped()
		return errors.New("W003").Wrap(err)
	}
	defer fsw.Close()

	target, err := filepath.Abs(w.config.Path)
	if err != nil {
		w.markStopped()
		return errors.New("W003").Wrap(err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		w.markStopped()
		return errors.New("W003").Wrap(err).
			WithSuggestion("Check that the directory of workspace.seed exists")
	}

	w.config.Logger.Info("watching workspace seed", "path", w.config.Path)

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.markStopped()
				return nil
			}
			if !w.relevant(event, target) {
				continue
			}
			timer.Reset(w.config.Debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.markStopped()
				return nil
			}
			w.config.Logger.Warn("workspace seed watch error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

// relevant reports whether event changes the content at target.
func (w *Watcher) relevant(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	onChange, onError := w.onChange, w.onError
	w.mu.Unlock()

	seed, err := LoadSeed(w.config.Path)
	if err != nil {
		w.config.Logger.Warn("workspace seed reload failed", "path", w.config.Path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.config.Logger.Info("workspace seed reloaded",
		"path", w.config.Path,
		"projects", len(seed.Projects),
		"environments", len(seed.Environments),
	)
	if onChange != nil {
		onChange(seed)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

func (w *Watcher) markStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
}
