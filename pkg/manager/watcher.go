package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher triggers a reload pass whenever a config script or the schema
// module changes on disk. It serializes Reload calls with a mutex, packaging
// the serialization the manager itself requires of concurrent callers.
//
// Watching needs a real filesystem; a manager built over an in-memory afero
// filesystem can still be watched, but no events will ever arrive.
type Watcher struct {
	manager  *Manager
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	mu sync.Mutex // serializes reload passes
}

// NewWatcher creates a watcher over the manager's declared files and schema.
// Directories are watched rather than the files themselves, so scripts that
// do not exist yet trigger a reload when they appear.
func NewWatcher(m *Manager, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		manager:  m,
		watcher:  fsWatcher,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
	if w.debounce <= 0 {
		w.debounce = 500 * time.Millisecond
	}

	dirs := map[string]bool{filepath.Dir(m.schema.Path): true}
	for _, f := range m.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to watch directory")
		}
	}

	return w, nil
}

// Start processes filesystem events until ctx is cancelled. It blocks;
// callers usually run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Reload runs one serialized reload pass.
func (w *Watcher) Reload() []Descriptor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.manager.Reload()
}

func (w *Watcher) reload() {
	w.Reload()
}

// relevant reports whether a changed path is one of the declared files or
// the schema module. Undeclared scripts in watched directories are ignored;
// only declared paths can affect a reload pass.
func (w *Watcher) relevant(path string) bool {
	if path == w.manager.schema.Path {
		return true
	}
	for _, f := range w.manager.files {
		if path == f {
			return true
		}
	}
	return false
}
