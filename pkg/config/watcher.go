// pkg/config/watcher.go
package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Watcher watches the config file for changes and invokes a callback when
// modifications are detected, so edits take effect without operator action.
//
// Changes are debounced to avoid firing multiple times for rapid successive
// writes (editors typically write a file several times on save).
type Watcher struct {
	// path is the config file to watch
	path string

	// onChange is invoked after the debounce delay once the file changed
	onChange func()

	// watcher is the fsnotify file watcher
	watcher *fsnotify.Watcher

	// debounceDelay is the time to wait before firing after a change
	debounceDelay time.Duration

	logger zerolog.Logger

	// mu protects the debounce timer
	mu sync.Mutex

	// debounceTimer is the active debounce timer (if any)
	debounceTimer *time.Timer
}

// NewWatcher creates a new config file watcher. The callback runs on the
// watcher's timer goroutine; it must not block for long.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:          path,
		onChange:      onChange,
		watcher:       watcher,
		debounceDelay: 250 * time.Millisecond,
		logger:        log.With().Str("component", "config.watcher").Logger(),
	}, nil
}

// Start begins watching the config file for changes.
//
// This method blocks until the context is canceled. It should be run
// in a separate goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	// fsnotify requires watching directories, not files directly
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().
			Err(err).
			Str("dir", dir).
			Msg("Failed to watch config directory")
		return err
	}

	w.logger.Info().
		Str("file", w.path).
		Dur("debounce", w.debounceDelay).
		Msg("Watching config file for changes")

	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching config file")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Ignore other files in the same directory.
			if filepath.Base(event.Name) != base {
				continue
			}

			// Only react to write/create events. Remove is handled by the
			// create that follows on the next write.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected config file change")

				w.scheduleCallback()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn().
				Err(err).
				Msg("File watcher error")
		}
	}
}

// scheduleCallback arms the debounce timer, resetting any pending one so a
// burst of writes produces a single callback.
func (w *Watcher) scheduleCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.onChange)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
