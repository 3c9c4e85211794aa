package tags

import (
	"fmt"
	"strconv"

	"github.com/Sorrow446/go-mp4tag"
	"go.senan.xyz/taglib"
)

type mp4Handler struct{}

// go-mp4tag always rewrites a covr atom, empty when there is no picture, and
// dhowden/tag rejects an empty covr. Reads therefore go through taglib.
func (mp4Handler) read(path string) (*Metadata, error) {
	meta, err := readWithTaglib(path)
	if err != nil {
		return nil, err
	}
	if data, err := taglib.ReadImage(path); err == nil && len(data) > 0 {
		meta.HasArtwork = true
	}
	return meta, nil
}

// mp4Totals returns the existing track and disc totals, zero when unknown.
func mp4Totals(path string) (trackTotal, discTotal int) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return 0, 0
	}
	t := taglibTags(raw)
	trackTotal, _ = strconv.Atoi(pairTotal(t.get(taglib.TrackNumber)))
	discTotal, _ = strconv.Atoi(pairTotal(t.get(taglib.DiscNumber)))
	return trackTotal, discTotal
}

func (mp4Handler) write(path string, fields Fields) error {
	trackTotal, discTotal := mp4Totals(path)

	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer mp4.Close()

	update := &mp4tag.MP4Tags{}
	var remove []string
	setText := func(dst *string, value *string, name string) {
		if value == nil {
			return
		}
		if *value == "" {
			remove = append(remove, name)
			return
		}
		*dst = *value
	}
	setText(&update.Title, fields.Title, "title")
	setText(&update.Artist, fields.Artist, "artist")
	setText(&update.Album, fields.Album, "album")
	setText(&update.AlbumArtist, fields.AlbumArtist, "albumartist")
	setText(&update.CustomGenre, fields.Genre, "genre")
	if fields.Year != nil {
		setText(&update.Date, Ptr(formatYear(*fields.Year)), "date")
	}
	if fields.TrackNumber != nil {
		if *fields.TrackNumber > 0 {
			update.TrackNumber = safeInt16(*fields.TrackNumber)
			update.TrackTotal = safeInt16(trackTotal)
		} else {
			remove = append(remove, "tracknumber")
		}
	}
	if fields.DiscNumber != nil {
		if *fields.DiscNumber > 0 {
			update.DiscNumber = safeInt16(*fields.DiscNumber)
			update.DiscTotal = safeInt16(discTotal)
		} else {
			remove = append(remove, "discnumber")
		}
	}

	if err := mp4.Write(update, remove); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (mp4Handler) readArtwork(path string) ([]byte, string, error) {
	data, err := taglib.ReadImage(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, "", nil
}

func (mp4Handler) writeArtwork(path string, data []byte, _ string) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer mp4.Close()

	update := &mp4tag.MP4Tags{
		Pictures: []*mp4tag.MP4Picture{{Data: data}},
	}
	if err := mp4.Write(update, nil); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// safeInt16 converts n to int16, clamping out-of-range values.
func safeInt16(n int) int16 {
	if n > 32767 {
		return 32767
	}
	if n < 0 {
		return 0
	}
	return int16(n)
}
