package tags

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.senan.xyz/taglib"
)

func handlerFor(path string) (Family, handler, error) {
	family, err := Sniff(path)
	if err != nil {
		return "", nil, err
	}
	h, ok := handlers[family]
	if !ok {
		return "", nil, fmt.Errorf("%s: %w", family, ErrUnsupportedFormat)
	}
	return family, h, nil
}

// Read returns the normalized metadata of path.
func Read(path string) (*Metadata, error) {
	family, h, err := handlerFor(path)
	if err != nil {
		return nil, err
	}
	meta, err := h.read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s tags: %w", family, err)
	}
	meta.Family = family
	if meta.Duration == 0 {
		meta.Duration = readDuration(path)
	}
	return meta, nil
}

// Write merges fields into the existing tags of path.
func Write(path string, fields Fields) error {
	if fields.Empty() {
		return nil
	}
	family, h, err := handlerFor(path)
	if err != nil {
		return err
	}
	if err := h.write(path, fields); err != nil {
		return fmt.Errorf("write %s tags: %w", family, err)
	}
	return nil
}

// WriteVerified writes fields and then re-reads the file to confirm them.
func WriteVerified(path string, fields Fields) error {
	if err := Write(path, fields); err != nil {
		return err
	}
	return Verify(path, fields)
}

// Verify re-reads path and returns a *MismatchError for the first supplied
// field whose stored value differs. Strings compare trimmed, numbers as integers.
func Verify(path string, fields Fields) error {
	meta, err := Read(path)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	checks := []struct {
		name string
		want *string
		got  string
	}{
		{"title", fields.Title, meta.Title},
		{"artist", fields.Artist, meta.Artist},
		{"album", fields.Album, meta.Album},
		{"album_artist", fields.AlbumArtist, meta.AlbumArtist},
		{"genre", fields.Genre, meta.Genre},
	}
	for _, c := range checks {
		if c.want == nil {
			continue
		}
		if strings.TrimSpace(*c.want) != strings.TrimSpace(c.got) {
			return &MismatchError{Path: path, Field: c.name, Want: strings.TrimSpace(*c.want), Got: strings.TrimSpace(c.got)}
		}
	}
	numbers := []struct {
		name string
		want *int
		got  int
	}{
		{"year", fields.Year, meta.Year},
		{"track_number", fields.TrackNumber, meta.TrackNumber},
		{"disc_number", fields.DiscNumber, meta.DiscNumber},
	}
	for _, c := range numbers {
		if c.want == nil {
			continue
		}
		want := max(*c.want, 0)
		if want != c.got {
			return &MismatchError{Path: path, Field: c.name, Want: strconv.Itoa(want), Got: strconv.Itoa(c.got)}
		}
	}
	return nil
}

// EmbedArtwork replaces the front cover of path with data. An empty mime is
// detected from the data.
func EmbedArtwork(path string, data []byte, mime string) error {
	if len(data) == 0 {
		return fmt.Errorf("artwork is empty")
	}
	family, h, err := handlerFor(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(mime) == "" {
		mime = http.DetectContentType(data)
	}
	if err := h.writeArtwork(path, data, mime); err != nil {
		return fmt.Errorf("embed %s artwork: %w", family, err)
	}
	return nil
}

// ExtractArtwork returns the embedded front cover of path. It returns nil data
// and no error when the file has no artwork.
func ExtractArtwork(path string) ([]byte, string, error) {
	family, h, err := handlerFor(path)
	if err != nil {
		return nil, "", err
	}
	data, mime, err := h.readArtwork(path)
	if err != nil {
		return nil, "", fmt.Errorf("extract %s artwork: %w", family, err)
	}
	if len(data) == 0 {
		return nil, "", nil
	}
	if strings.TrimSpace(mime) == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// ArtworkExtension maps an image mime type to a file extension.
func ArtworkExtension(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// readDuration reports the stream length, or zero when it cannot be determined.
func readDuration(path string) time.Duration {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return 0
	}
	return props.Length
}
