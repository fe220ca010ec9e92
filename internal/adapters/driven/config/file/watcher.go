package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads settings when the config file changes.
//
// The parent directory is watched rather than the file itself, so
// atomic-rename saves are picked up.
type Watcher struct {
	opts     Options
	path     string
	debounce time.Duration
	onChange func(domain.Settings)

	fs *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for opts.Path (or the default path).
// onChange receives each successfully reloaded configuration; reloads that
// fail validation are logged and skipped.
func NewWatcher(opts Options, debounce time.Duration, onChange func(domain.Settings)) (*Watcher, error) {
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	opts.Path = path
	return &Watcher{
		opts:     opts,
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		fs:       fsw,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	settings, err := Load(w.opts)
	if err != nil {
		logger.Warn("config reload failed, keeping previous settings: %v", err)
		return
	}
	if level, ok := logger.ParseLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}
	logger.Info("config reloaded from %s", w.path)
	if w.onChange != nil {
		w.onChange(settings)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fs.Close()
}
