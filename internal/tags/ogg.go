package tags

import (
	"fmt"

	"go.senan.xyz/taglib"
)

type oggHandler struct{}

// taglibTags wraps a taglib tag map with lookup helpers.
type taglibTags map[string][]string

func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (oggHandler) read(path string) (*Metadata, error) {
	meta, err := readWithTaglib(path)
	if err != nil {
		return nil, err
	}
	if data, _, err := readArtworkWithDhowden(path); err == nil && len(data) > 0 {
		meta.HasArtwork = true
	}
	return meta, nil
}

// readWithTaglib reads the common fields from taglib's property map.
func readWithTaglib(path string) (*Metadata, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	t := taglibTags(raw)
	return &Metadata{
		Title:       t.get(taglib.Title),
		Artist:      t.get(taglib.Artist),
		Album:       t.get(taglib.Album),
		AlbumArtist: t.get(taglib.AlbumArtist),
		Genre:       t.get(taglib.Genre),
		Year:        leadingInt(t.get(taglib.Date, "YEAR")),
		TrackNumber: leadingInt(t.get(taglib.TrackNumber)),
		DiscNumber:  leadingInt(t.get(taglib.DiscNumber)),
	}, nil
}

func (oggHandler) write(path string, fields Fields) error {
	var existing taglibTags
	if fields.TrackNumber != nil || fields.DiscNumber != nil {
		raw, err := taglib.ReadTags(path)
		if err != nil {
			return fmt.Errorf("read tags: %w", err)
		}
		existing = taglibTags(raw)
	}

	update := make(map[string][]string)
	set := func(key, value string) {
		if value == "" {
			update[key] = nil
			return
		}
		update[key] = []string{value}
	}
	setText := func(key string, value *string) {
		if value != nil {
			set(key, *value)
		}
	}
	setText(taglib.Title, fields.Title)
	setText(taglib.Artist, fields.Artist)
	setText(taglib.Album, fields.Album)
	setText(taglib.AlbumArtist, fields.AlbumArtist)
	setText(taglib.Genre, fields.Genre)
	if fields.Year != nil {
		set(taglib.Date, formatYear(*fields.Year))
	}
	if fields.TrackNumber != nil {
		set(taglib.TrackNumber, formatNumber(*fields.TrackNumber, existing.get(taglib.TrackNumber)))
	}
	if fields.DiscNumber != nil {
		set(taglib.DiscNumber, formatNumber(*fields.DiscNumber, existing.get(taglib.DiscNumber)))
	}

	// Without the Clear option taglib only touches the keys present in update.
	if err := taglib.WriteTags(path, update, 0); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}
	return nil
}

func (oggHandler) readArtwork(path string) ([]byte, string, error) {
	return readArtworkWithDhowden(path)
}

func (oggHandler) writeArtwork(path string, data []byte, _ string) error {
	if err := taglib.WriteImage(path, data); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
