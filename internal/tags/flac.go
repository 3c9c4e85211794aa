package tags

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

type flacHandler struct{}

func parseVorbis(f *flac.File) (int, *flacvorbis.MetaDataBlockVorbisComment) {
	for idx, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return idx, nil
		}
		return idx, cmt
	}
	return -1, nil
}

// vorbisValues maps upper-cased comment keys to their first value.
func vorbisValues(cmt *flacvorbis.MetaDataBlockVorbisComment) map[string]string {
	values := make(map[string]string)
	if cmt == nil {
		return values
	}
	for _, comment := range cmt.Comments {
		key, value, ok := strings.Cut(comment, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(key)
		if _, seen := values[key]; !seen {
			values[key] = value
		}
	}
	return values
}

func (flacHandler) read(path string) (*Metadata, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	_, cmt := parseVorbis(f)
	values := vorbisValues(cmt)

	year := values["DATE"]
	if year == "" {
		year = values["YEAR"]
	}
	meta := &Metadata{
		Title:       values["TITLE"],
		Artist:      values["ARTIST"],
		Album:       values["ALBUM"],
		AlbumArtist: values["ALBUMARTIST"],
		Genre:       values["GENRE"],
		Year:        leadingInt(year),
		TrackNumber: leadingInt(values["TRACKNUMBER"]),
		DiscNumber:  leadingInt(values["DISCNUMBER"]),
	}
	for _, block := range f.Meta {
		if block.Type == flac.Picture {
			meta.HasArtwork = true
			break
		}
	}
	return meta, nil
}

func (flacHandler) write(path string, fields Fields) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	idx, existing := parseVorbis(f)
	values := vorbisValues(existing)
	updates := vorbisUpdates(fields, values)

	cmt := flacvorbis.New()
	if existing != nil {
		cmt.Vendor = existing.Vendor
		for _, comment := range existing.Comments {
			key, value, ok := strings.Cut(comment, "=")
			if !ok {
				continue
			}
			if _, replaced := updates[strings.ToUpper(key)]; replaced {
				continue
			}
			if err := cmt.Add(key, value); err != nil {
				return fmt.Errorf("keep %s: %w", key, err)
			}
		}
	}
	for _, key := range vorbisKeyOrder {
		value, ok := updates[key]
		if !ok || value == "" {
			continue
		}
		if err := cmt.Add(key, value); err != nil {
			return fmt.Errorf("add %s: %w", key, err)
		}
	}

	block := cmt.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

var vorbisKeyOrder = []string{"TITLE", "ARTIST", "ALBUM", "ALBUMARTIST", "GENRE", "DATE", "TRACKNUMBER", "DISCNUMBER"}

// vorbisUpdates converts fields into replacement comment values. An empty
// value deletes the key.
func vorbisUpdates(fields Fields, existing map[string]string) map[string]string {
	updates := make(map[string]string)
	setText := func(key string, value *string) {
		if value != nil {
			updates[key] = *value
		}
	}
	setText("TITLE", fields.Title)
	setText("ARTIST", fields.Artist)
	setText("ALBUM", fields.Album)
	setText("ALBUMARTIST", fields.AlbumArtist)
	setText("GENRE", fields.Genre)
	if fields.Year != nil {
		updates["DATE"] = formatYear(*fields.Year)
		updates["YEAR"] = ""
	}
	if fields.TrackNumber != nil {
		updates["TRACKNUMBER"] = formatNumber(*fields.TrackNumber, existing["TRACKNUMBER"])
	}
	if fields.DiscNumber != nil {
		updates["DISCNUMBER"] = formatNumber(*fields.DiscNumber, existing["DISCNUMBER"])
	}
	return updates
}

func (flacHandler) readArtwork(path string) ([]byte, string, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("parse: %w", err)
	}
	var fallback *flacpicture.MetadataBlockPicture
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			return pic.ImageData, pic.MIME, nil
		}
		if fallback == nil {
			fallback = pic
		}
	}
	if fallback != nil {
		return fallback.ImageData, fallback.MIME, nil
	}
	return nil, "", nil
}

func (flacHandler) writeArtwork(path string, data []byte, mime string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta)+1)
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", data, mime)
	if err != nil {
		return fmt.Errorf("build picture: %w", err)
	}
	block := pic.Marshal()
	f.Meta = append(kept, &block)
	if err := f.Save(path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
