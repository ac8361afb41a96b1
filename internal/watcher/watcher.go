// Package watcher monitors the settings file for edits and drives hot
// reload. The parent directory is watched rather than the file itself:
// most editors and sync tools replace the file by rename, which would
// silently detach a watch on the file's inode.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the file must sit unchanged before onChange
// fires. Editors write settings files in bursts (truncate, write,
// rename); reacting to the first event would reload a half-written file.
const debounce = 500 * time.Millisecond

// Watcher invokes a callback when the watched file settles after a
// change. Callbacks run on the watcher's goroutine, one at a time.
type Watcher struct {
	path     string
	onChange func()
	logger   *slog.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
}

// New creates a Watcher for the given file path.
func New(path string, onChange func(), logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching. Call Stop to clean up.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.fsw = fsw

	w.logger.Info("settings watcher started", "file", w.path)
	go w.loop()
	return nil
}

// Stop shuts down the watcher. The callback will not fire afterwards.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.fsw != nil {
		w.fsw.Close()
	}
}

func (w *Watcher) loop() {
	var pending time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			pending = time.Now()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			w.logger.Info("settings file changed", "file", w.path)
			w.onChange()
		}
	}
}
