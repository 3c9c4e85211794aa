package tags

import (
	"errors"
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"
)

const id3Magic = "ID3"

type mp3Handler struct{}

func openID3(path string) (*id3v2.Tag, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		// ID3v2.2 and older cannot be edited in place; drop the tag and start fresh.
		if stripErr := stripID3v2Tag(path); stripErr != nil {
			return nil, fmt.Errorf("strip unsupported ID3v2 tag: %w", stripErr)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return tag, nil
}

func (mp3Handler) read(path string) (*Metadata, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		return readWithDhowden(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer tag.Close()

	year := textFrame(tag, "TDRC")
	if year == "" {
		year = textFrame(tag, "TYER")
	}
	return &Metadata{
		Title:       tag.Title(),
		Artist:      tag.Artist(),
		Album:       tag.Album(),
		AlbumArtist: textFrame(tag, "TPE2"),
		Genre:       tag.Genre(),
		Year:        leadingInt(year),
		TrackNumber: leadingInt(textFrame(tag, "TRCK")),
		DiscNumber:  leadingInt(textFrame(tag, "TPOS")),
		HasArtwork:  len(tag.GetFrames("APIC")) > 0,
	}, nil
}

func (mp3Handler) write(path string, fields Fields) error {
	tag, err := openID3(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	setText := func(id string, value *string) {
		if value == nil {
			return
		}
		tag.DeleteFrames(id)
		if *value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, *value)
		}
	}
	setText("TIT2", fields.Title)
	setText("TPE1", fields.Artist)
	setText("TALB", fields.Album)
	setText("TPE2", fields.AlbumArtist)
	setText("TCON", fields.Genre)
	if fields.Year != nil {
		tag.DeleteFrames("TYER")
		setText("TDRC", Ptr(formatYear(*fields.Year)))
	}
	if fields.TrackNumber != nil {
		setText("TRCK", Ptr(formatNumber(*fields.TrackNumber, textFrame(tag, "TRCK"))))
	}
	if fields.DiscNumber != nil {
		setText("TPOS", Ptr(formatNumber(*fields.DiscNumber, textFrame(tag, "TPOS"))))
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (mp3Handler) readArtwork(path string) ([]byte, string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		return readArtworkWithDhowden(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("open: %w", err)
	}
	defer tag.Close()

	var fallback *id3v2.PictureFrame
	for _, frame := range tag.GetFrames("APIC") {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		if pic.PictureType == id3v2.PTFrontCover {
			return pic.Picture, pic.MimeType, nil
		}
		if fallback == nil {
			fallback = &pic
		}
	}
	if fallback != nil {
		return fallback.Picture, fallback.MimeType, nil
	}
	return nil, "", nil
}

func (mp3Handler) writeArtwork(path string, data []byte, mime string) error {
	tag, err := openID3(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteFrames("APIC")
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: "Front Cover",
		Picture:     data,
	})
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func textFrame(tag *id3v2.Tag, id string) string {
	tf := tag.GetTextFrame(id)
	return tf.Text
}

// stripID3v2Tag removes a leading ID3v2 tag from path.
func stripID3v2Tag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if len(data) < 10 || string(data[:3]) != id3Magic {
		return nil
	}

	// Size is a synchsafe integer in bytes 6-9.
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	tagSize := size + 10
	if data[5]&0x10 != 0 {
		tagSize += 10
	}
	if tagSize >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", tagSize, len(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if err := os.WriteFile(path, data[tagSize:], info.Mode()); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
