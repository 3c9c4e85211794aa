package testsupport

import (
	"context"
	"testing"

	"tuneshelf/internal/config"
	"tuneshelf/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem inserts a pending item with the given fingerprint and staged path.
func NewItem(t testing.TB, store *queue.Store, fingerprint, stagedPath string) *queue.Item {
	t.Helper()

	item, inserted, err := store.InsertItem(context.Background(), &queue.Item{
		Fingerprint:    fingerprint,
		OriginalPath:   stagedPath,
		StagedPath:     stagedPath,
		InferredTitle:  "Title",
		InferredArtist: "Artist",
		CurrentTitle:   "Title",
		CurrentArtist:  "Artist",
		Extension:      ".mp3",
		Status:         queue.StatusPending,
	})
	if err != nil {
		t.Fatalf("store.InsertItem: %v", err)
	}
	if !inserted {
		t.Fatalf("store.InsertItem: fingerprint %s already present", fingerprint)
	}
	return item
}
