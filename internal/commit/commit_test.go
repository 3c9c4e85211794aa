package commit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tuneshelf/internal/services"
	"tuneshelf/internal/tags"
	"tuneshelf/internal/testsupport"
)

func TestCommitWritesAndVerifies(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "song.mp3")
	testsupport.WriteMP3(t, staged, 4)

	engine := NewEngine(nil)
	err := engine.Commit(context.Background(), staged, Request{
		Title:       "يا طيبة",
		Artist:      "محمد",
		Genre:       "أناشيد",
		Album:       "منوعات",
		AlbumArtist: "محمد",
		Artwork:     testsupport.PNG,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	meta, err := tags.Read(staged)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Title != "يا طيبة" || meta.Artist != "محمد" || meta.Genre != "أناشيد" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.Album != "منوعات" || meta.AlbumArtist != "محمد" {
		t.Fatalf("unexpected album fields %+v", meta)
	}
	data, mime, err := tags.ExtractArtwork(staged)
	if err != nil {
		t.Fatalf("ExtractArtwork: %v", err)
	}
	if !bytes.Equal(data, testsupport.PNG) || mime != "image/png" {
		t.Fatalf("artwork not embedded (mime %q, %d bytes)", mime, len(data))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the staged file, found %d entries", len(entries))
	}
}

func TestCommitDropsArtworkWhenTagsNoLongerVerify(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "song.mp3")
	testsupport.WriteMP3(t, staged, 4)

	engine := NewEngine(nil)
	embeds := 0
	engine.embedArtwork = func(path string, data []byte, mime string) error {
		embeds++
		if err := tags.EmbedArtwork(path, data, mime); err != nil {
			return err
		}
		return tags.Write(path, tags.Fields{Title: tags.Ptr("clobbered")})
	}

	err := engine.Commit(context.Background(), staged, Request{
		Title:   "يا طيبة",
		Artist:  "محمد",
		Genre:   "أناشيد",
		Artwork: testsupport.PNG,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if embeds != 1 {
		t.Fatalf("expected one embed attempt, got %d", embeds)
	}

	meta, err := tags.Read(staged)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Title != "يا طيبة" || meta.Artist != "محمد" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	data, _, err := tags.ExtractArtwork(staged)
	if err != nil {
		t.Fatalf("ExtractArtwork: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected artwork to be dropped, found %d bytes", len(data))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestCommitFailureLeavesStagedFileUntouched(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "notes.txt")
	original := bytes.Repeat([]byte("not audio "), 20)
	if err := os.WriteFile(staged, original, 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewEngine(nil).Commit(context.Background(), staged, Request{Title: "A", Artist: "B", Genre: "G"})
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if !errors.Is(err, tags.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format cause, got %v", err)
	}

	got, readErr := os.ReadFile(staged)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("staged file was modified")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestCommitMissingStagedFile(t *testing.T) {
	err := NewEngine(nil).Commit(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), Request{Title: "A"})
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestTempSibling(t *testing.T) {
	got := tempSibling("/staging/abc/My Song.mp3")
	if filepath.Dir(got) != "/staging/abc" {
		t.Fatalf("temp file not a sibling: %s", got)
	}
	base := filepath.Base(got)
	if base[0] != '.' || filepath.Ext(base) != ".mp3" {
		t.Fatalf("unexpected temp name %q", base)
	}
	if got == tempSibling("/staging/abc/My Song.mp3") {
		t.Fatal("temp names must be unique")
	}
}
