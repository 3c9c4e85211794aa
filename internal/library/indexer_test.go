package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tuneshelf/internal/library"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/tags"
	"tuneshelf/internal/testsupport"
)

func writeTagged(t *testing.T, path, title, artist string) {
	t.Helper()
	testsupport.WriteMP3(t, path, 4)
	if err := tags.Write(path, tags.Fields{Title: tags.Ptr(title), Artist: tags.Ptr(artist), Album: tags.Ptr("منوعات")}); err != nil {
		t.Fatalf("tags.Write: %v", err)
	}
}

func TestIndexerPassIndexesSkipsAndPrunes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := filepath.Join(cfg.Paths.LibraryDir, "محمد عبده", "منوعات", "الأماكن.mp3")
	second := filepath.Join(cfg.Paths.LibraryDir, "Fairuz", "منوعات", "Nassam Alayna.mp3")
	writeTagged(t, first, "الأماكن", "محمد عبده")
	writeTagged(t, second, "Nassam Alayna", "Fairuz")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.LibraryDir, "notes.txt"), 10)

	indexer := library.NewIndexer(cfg, store, logging.NewNop())
	worker := scanner.NewWorker(library.PassName, logging.NewNop())

	pass := indexer.Pass(false)
	status, err := worker.Run(ctx, pass)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Total != 2 || len(status.Errors) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if indexed, _, _ := pass.Counts(); indexed != 2 {
		t.Fatalf("expected 2 indexed, got %d", indexed)
	}

	artists, err := store.ArtistCounts(ctx, "")
	if err != nil {
		t.Fatalf("ArtistCounts: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %+v", artists)
	}

	again := indexer.Pass(false)
	if _, err := worker.Run(ctx, again); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if indexed, skipped, _ := again.Counts(); indexed != 0 || skipped != 2 {
		t.Fatalf("expected unchanged files to be skipped, indexed=%d skipped=%d", indexed, skipped)
	}

	forced := indexer.Pass(true)
	if _, err := worker.Run(ctx, forced); err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if indexed, skipped, _ := forced.Counts(); indexed != 2 || skipped != 0 {
		t.Fatalf("forced pass should reindex, indexed=%d skipped=%d", indexed, skipped)
	}

	if err := os.Remove(second); err != nil {
		t.Fatalf("remove: %v", err)
	}
	pruned := indexer.Pass(false)
	if _, err := worker.Run(ctx, pruned); err != nil {
		t.Fatalf("prune Run: %v", err)
	}
	if _, _, removed := pruned.Counts(); removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
	track, err := store.TrackByPath(ctx, second)
	if err != nil {
		t.Fatalf("TrackByPath: %v", err)
	}
	if track != nil {
		t.Fatalf("expected pruned track to be gone, got %+v", track)
	}
}

func TestTrackFromFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Paths.LibraryDir, "a.mp3")
	writeTagged(t, path, "Song", "Singer")

	track, err := library.TrackFromFile(path)
	if err != nil {
		t.Fatalf("TrackFromFile: %v", err)
	}
	if track.Title != "Song" || track.Artist != "Singer" || track.Album != "منوعات" || track.FileSize == 0 {
		t.Fatalf("unexpected track %+v", track)
	}
}
