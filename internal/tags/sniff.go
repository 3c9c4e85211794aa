package tags

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Sniff determines the container family of path from its leading bytes. The
// extension is used only when the content is inconclusive.
func Sniff(path string) (Family, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read header: %w", err)
	}
	header = header[:n]

	if family, ok := familyFromMagic(header); ok {
		return family, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if _, fileType, idErr := tag.Identify(f); idErr == nil {
			if family, ok := familyFromFileType(fileType); ok {
				return family, nil
			}
		}
	}

	if family, ok := familyFromExtension(filepath.Ext(path)); ok {
		return family, nil
	}
	return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
}

func familyFromMagic(header []byte) (Family, bool) {
	switch {
	case bytes.HasPrefix(header, []byte("ID3")):
		return FamilyMP3, true
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FamilyFLAC, true
	case bytes.HasPrefix(header, []byte("OggS")):
		return FamilyOgg, true
	case len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")):
		return FamilyMP4, true
	case len(header) >= 2 && header[0] == 0xff && header[1]&0xe0 == 0xe0:
		return FamilyMP3, true
	}
	return "", false
}

func familyFromFileType(fileType tag.FileType) (Family, bool) {
	switch fileType {
	case tag.MP3:
		return FamilyMP3, true
	case tag.FLAC:
		return FamilyFLAC, true
	case tag.OGG:
		return FamilyOgg, true
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return FamilyMP4, true
	}
	return "", false
}

func familyFromExtension(ext string) (Family, bool) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return FamilyMP3, true
	case ".flac":
		return FamilyFLAC, true
	case ".m4a", ".m4b", ".mp4", ".aac":
		return FamilyMP4, true
	case ".ogg", ".oga", ".opus":
		return FamilyOgg, true
	}
	return "", false
}
