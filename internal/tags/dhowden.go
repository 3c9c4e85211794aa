package tags

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// readWithDhowden reads the common fields through dhowden/tag. A file with no
// tags yields empty metadata rather than an error.
func readWithDhowden(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return &Metadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	track, _ := m.Track()
	disc, _ := m.Disc()
	return &Metadata{
		Title:       m.Title(),
		Artist:      m.Artist(),
		Album:       m.Album(),
		AlbumArtist: m.AlbumArtist(),
		Genre:       m.Genre(),
		Year:        m.Year(),
		TrackNumber: track,
		DiscNumber:  disc,
		HasArtwork:  m.Picture() != nil,
	}, nil
}

// readArtworkWithDhowden returns the embedded picture found by dhowden/tag.
func readArtworkWithDhowden(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("parse tags: %w", err)
	}
	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}
