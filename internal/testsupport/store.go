package testsupport

import (
	"context"
	"testing"

	"scribeq/internal/classify"
	"scribeq/internal/config"
	"scribeq/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewFile enqueues a file item for tests using the provided store.
func NewFile(t testing.TB, store *queue.Store, sourcePath string, kind classify.Kind) *queue.Item {
	t.Helper()

	item, err := store.NewFile(context.Background(), sourcePath, kind)
	if err != nil {
		t.Fatalf("store.NewFile: %v", err)
	}
	return item
}
