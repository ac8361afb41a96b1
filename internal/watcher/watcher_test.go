package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWatcherFiresOnSettingsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"port":8090}`), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w := New(path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, noopLogger)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{"port":9300}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("change callback never fired")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w := New(path, func() { changed <- struct{}{} }, noopLogger)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(1 * time.Second):
	}
}

func TestWatcherStartFailsOnMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "settings.json"), func() {}, noopLogger)
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("Start should fail when the parent directory is missing")
	}
}
