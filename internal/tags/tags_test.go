package tags

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"tuneshelf/internal/testsupport"
)

func newMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	testsupport.WriteMP3(t, path, 4)
	return path
}

// copyFixture copies a checked-in sample from testdata into a temp dir so
// the test can rewrite its tags.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestSniffMagicBytes(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name   string
		header []byte
		want   Family
	}{
		{"id3.bin", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), FamilyMP3},
		{"sync.bin", []byte{0xff, 0xfb, 0x90, 0x00}, FamilyMP3},
		{"stream.bin", []byte("fLaC\x00\x00\x00\x22"), FamilyFLAC},
		{"stream2.bin", []byte("OggS\x00\x02\x00\x00"), FamilyOgg},
		{"movie.bin", []byte("\x00\x00\x00\x20ftypM4A \x00\x00"), FamilyMP4},
		{"mislabeled.mp3", []byte("fLaC\x00\x00\x00\x22"), FamilyFLAC},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			if err := os.WriteFile(path, append(tc.header, make([]byte, 64)...), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := Sniff(path)
			if err != nil {
				t.Fatalf("Sniff: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Sniff = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSniffExtensionFallbackAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	junk := bytes.Repeat([]byte("x"), 64)

	opus := filepath.Join(dir, "voice.opus")
	if err := os.WriteFile(opus, junk, 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := Sniff(opus); err != nil || got != FamilyOgg {
		t.Fatalf("Sniff(opus) = %s, %v", got, err)
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, junk, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Sniff(text); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestMP3WriteVerifiedRoundTrip(t *testing.T) {
	path := newMP3(t)

	fields := Fields{
		Title:       Ptr("أغنية"),
		Artist:      Ptr("محمد عبده"),
		Album:       Ptr("منوعات"),
		AlbumArtist: Ptr("محمد عبده"),
		Genre:       Ptr("Khaleeji"),
		Year:        Ptr(2021),
	}
	if err := WriteVerified(path, fields); err != nil {
		t.Fatalf("WriteVerified: %v", err)
	}

	meta, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Family != FamilyMP3 {
		t.Fatalf("family = %s", meta.Family)
	}
	if meta.Title != "أغنية" || meta.Artist != "محمد عبده" || meta.Album != "منوعات" || meta.Genre != "Khaleeji" || meta.Year != 2021 {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
}

func TestWriteMergesIntoExistingTags(t *testing.T) {
	path := newMP3(t)

	if err := Write(path, Fields{Title: Ptr("Keep Me"), Genre: Ptr("Pop")}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, Fields{Artist: Ptr("Someone"), Genre: Ptr("")}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	meta, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Title != "Keep Me" || meta.Artist != "Someone" {
		t.Fatalf("expected merge, got %#v", meta)
	}
	if meta.Genre != "" {
		t.Fatalf("expected genre to be cleared, got %q", meta.Genre)
	}
}

func TestVerifyReportsMismatch(t *testing.T) {
	path := newMP3(t)
	if err := Write(path, Fields{Title: Ptr("X")}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	err := Verify(path, Fields{Title: Ptr("Y")})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected MismatchError, got %v", err)
	}
	if mismatch.Field != "title" || mismatch.Want != "Y" || mismatch.Got != "X" {
		t.Fatalf("unexpected mismatch: %#v", mismatch)
	}

	if err := Verify(path, Fields{Title: Ptr("  X  ")}); err != nil {
		t.Fatalf("expected trimmed comparison to pass, got %v", err)
	}
	if err := Verify(path, Fields{TrackNumber: Ptr(3)}); !errors.As(err, &mismatch) || mismatch.Field != "track_number" {
		t.Fatalf("expected track_number mismatch, got %v", err)
	}
}

func TestMP3TrackNumberPreservesTotal(t *testing.T) {
	path := newMP3(t)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tag.SetVersion(4)
	tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, "3/12")
	if err := tag.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	tag.Close()

	meta, err := Read(path)
	if err != nil || meta.TrackNumber != 3 {
		t.Fatalf("expected leading integer of pair, got %#v, %v", meta, err)
	}

	if err := WriteVerified(path, Fields{TrackNumber: Ptr(5), DiscNumber: Ptr(1)}); err != nil {
		t.Fatalf("WriteVerified: %v", err)
	}

	tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tag.Close()
	if got := tag.GetTextFrame("TRCK").Text; got != "5/12" {
		t.Fatalf("TRCK = %q, want 5/12", got)
	}
	if got := tag.GetTextFrame("TPOS").Text; got != "1" {
		t.Fatalf("TPOS = %q, want 1", got)
	}
}

func TestMP3ArtworkRoundTrip(t *testing.T) {
	path := newMP3(t)

	data, mime, err := ExtractArtwork(path)
	if err != nil || data != nil {
		t.Fatalf("expected no artwork on fresh file, got %d bytes, %v", len(data), err)
	}

	if err := EmbedArtwork(path, testsupport.PNG, ""); err != nil {
		t.Fatalf("EmbedArtwork: %v", err)
	}
	data, mime, err = ExtractArtwork(path)
	if err != nil {
		t.Fatalf("ExtractArtwork: %v", err)
	}
	if !bytes.Equal(data, testsupport.PNG) || mime != "image/png" {
		t.Fatalf("unexpected artwork: %d bytes, mime %q", len(data), mime)
	}
	meta, err := Read(path)
	if err != nil || !meta.HasArtwork {
		t.Fatalf("expected HasArtwork, got %#v, %v", meta, err)
	}
	if ArtworkExtension(mime) != ".png" {
		t.Fatalf("unexpected extension %q", ArtworkExtension(mime))
	}
}

func TestEmbedArtworkRejectsEmpty(t *testing.T) {
	if err := EmbedArtwork(newMP3(t), nil, "image/png"); err == nil {
		t.Fatal("expected error for empty artwork")
	}
}

func TestFLACWriteVerifiedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	testsupport.WriteFLAC(t, path)

	if family, err := Sniff(path); err != nil || family != FamilyFLAC {
		t.Fatalf("Sniff = %s, %v", family, err)
	}
	fields := Fields{
		Title:       Ptr("أغنية"),
		Artist:      Ptr("فنان"),
		TrackNumber: Ptr(4),
		Year:        Ptr(1999),
	}
	if err := WriteVerified(path, fields); err != nil {
		t.Fatalf("WriteVerified: %v", err)
	}
	if err := WriteVerified(path, Fields{Genre: Ptr("Tarab")}); err != nil {
		t.Fatalf("WriteVerified genre: %v", err)
	}

	meta, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Family != FamilyFLAC {
		t.Fatalf("family = %s", meta.Family)
	}
	if meta.Title != "أغنية" || meta.Artist != "فنان" || meta.TrackNumber != 4 || meta.Year != 1999 || meta.Genre != "Tarab" {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
	if meta.Duration <= 0 {
		t.Fatalf("expected a duration, got %v", meta.Duration)
	}

	var mismatch *MismatchError
	if err := Verify(path, Fields{Artist: Ptr("someone else")}); !errors.As(err, &mismatch) || mismatch.Field != "artist" {
		t.Fatalf("expected artist mismatch, got %v", err)
	}
}

func TestFLACArtworkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	testsupport.WriteFLAC(t, path)

	if err := EmbedArtwork(path, testsupport.PNG, ""); err != nil {
		t.Fatalf("EmbedArtwork: %v", err)
	}
	data, mime, err := ExtractArtwork(path)
	if err != nil {
		t.Fatalf("ExtractArtwork: %v", err)
	}
	if !bytes.Equal(data, testsupport.PNG) || mime != "image/png" {
		t.Fatalf("unexpected artwork: %d bytes, mime %q", len(data), mime)
	}
	if err := WriteVerified(path, Fields{Title: Ptr("After Cover")}); err != nil {
		t.Fatalf("WriteVerified: %v", err)
	}
	meta, err := Read(path)
	if err != nil || !meta.HasArtwork || meta.Title != "After Cover" {
		t.Fatalf("expected artwork and title to survive, got %#v, %v", meta, err)
	}
}

func TestFixtureRoundTrips(t *testing.T) {
	cases := []struct {
		file   string
		family Family
	}{
		{"tone.ogg", FamilyOgg},
		{"tone.opus", FamilyOgg},
		{"tone.m4a", FamilyMP4},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			path := copyFixture(t, tc.file)

			if family, err := Sniff(path); err != nil || family != tc.family {
				t.Fatalf("Sniff = %s, %v", family, err)
			}
			fields := Fields{Title: Ptr("X"), Artist: Ptr("فنان"), TrackNumber: Ptr(2)}
			if err := WriteVerified(path, fields); err != nil {
				t.Fatalf("WriteVerified: %v", err)
			}
			meta, err := Read(path)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if meta.Family != tc.family || meta.Title != "X" || meta.Artist != "فنان" || meta.TrackNumber != 2 {
				t.Fatalf("unexpected metadata: %#v", meta)
			}
			if meta.Duration <= 0 {
				t.Fatalf("expected a duration, got %v", meta.Duration)
			}

			var mismatch *MismatchError
			if err := Verify(path, Fields{Title: Ptr("Y")}); !errors.As(err, &mismatch) {
				t.Fatalf("expected MismatchError, got %v", err)
			}
		})
	}
}
