package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scribeq/internal/logging"
	"scribeq/internal/testsupport"
	"scribeq/internal/watch"
)

func TestStartEnqueuesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "present.mkv"), 64)
	if err := os.WriteFile(filepath.Join(dir, "empty.mkv"), nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	enqueued := make(chan string, 4)
	w := watch.New(dir, func(_ context.Context, path string) error {
		enqueued <- path
		return nil
	}, logging.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	select {
	case path := <-enqueued:
		if filepath.Base(path) != "present.mkv" {
			t.Fatalf("unexpected file %q", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("existing file was not enqueued")
	}

	// Empty files are skipped, so nothing else arrives.
	select {
	case path := <-enqueued:
		t.Fatalf("empty file should be ignored, got %q", path)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherEnqueuesAfterWritesSettle(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the settle delay")
	}
	dir := t.TempDir()

	enqueued := make(chan string, 1)
	w := watch.New(dir, func(_ context.Context, path string) error {
		enqueued <- path
		return nil
	}, logging.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	testsupport.WriteFile(t, filepath.Join(dir, "dropped.srt"), 128)

	select {
	case path := <-enqueued:
		if filepath.Base(path) != "dropped.srt" {
			t.Fatalf("unexpected file %q", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dropped file was not enqueued after settling")
	}
}

func TestWatcherLifecycle(t *testing.T) {
	var nilWatcher *watch.Watcher
	if nilWatcher.Running() {
		t.Fatal("nil watcher should report not running")
	}

	w := watch.New(t.TempDir(), func(context.Context, string) error { return nil }, logging.NewNop())
	if w.Running() {
		t.Fatal("watcher should be idle before Start")
	}
	w.Stop()

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}
	if !w.Running() {
		t.Fatal("watcher should be running")
	}
	w.Stop()
	if w.Running() {
		t.Fatal("watcher should stop")
	}
}
