package tags

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned when a file does not belong to a known family.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Family identifies a tag container family.
type Family string

const (
	FamilyMP3  Family = "mp3"
	FamilyFLAC Family = "flac"
	FamilyMP4  Family = "mp4"
	FamilyOgg  Family = "ogg"
)

// Metadata is the normalized view of a file's descriptive tags.
type Metadata struct {
	Family      Family
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	TrackNumber int
	DiscNumber  int
	Duration    time.Duration
	HasArtwork  bool
}

// Fields is a partial tag update. Nil fields are left untouched; a pointer to
// an empty string removes the tag.
type Fields struct {
	Title       *string
	Artist      *string
	Album       *string
	AlbumArtist *string
	Genre       *string
	Year        *int
	TrackNumber *int
	DiscNumber  *int
}

// Ptr returns a pointer to v, for building Fields literals.
func Ptr[T any](v T) *T { return &v }

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Title == nil && f.Artist == nil && f.Album == nil && f.AlbumArtist == nil &&
		f.Genre == nil && f.Year == nil && f.TrackNumber == nil && f.DiscNumber == nil
}

// MismatchError reports a field whose re-read value differs from what was written.
type MismatchError struct {
	Path  string
	Field string
	Want  string
	Got   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("tag verification failed for %s: %s is %q, expected %q", e.Path, e.Field, e.Got, e.Want)
}

// handler implements one container family.
type handler interface {
	read(path string) (*Metadata, error)
	write(path string, fields Fields) error
	readArtwork(path string) ([]byte, string, error)
	writeArtwork(path string, data []byte, mime string) error
}

var handlers = map[Family]handler{
	FamilyMP3:  mp3Handler{},
	FamilyFLAC: flacHandler{},
	FamilyMP4:  mp4Handler{},
	FamilyOgg:  oggHandler{},
}

// leadingInt parses the integer prefix of values such as "3/12" or "2021-04-05".
func leadingInt(value string) int {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	return n
}

// pairTotal returns the "/total" part of a pair-encoded number, or "".
func pairTotal(value string) string {
	idx := strings.Index(value, "/")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(value[idx+1:])
}

// formatNumber renders n for a pair-encoding field, keeping any total already
// present in previous. Zero renders as "" so the tag is removed.
func formatNumber(n int, previous string) string {
	if n <= 0 {
		return ""
	}
	if total := pairTotal(previous); total != "" {
		return strconv.Itoa(n) + "/" + total
	}
	return strconv.Itoa(n)
}

func formatYear(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}
