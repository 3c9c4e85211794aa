package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an ingest item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusError       Status = "error"
	StatusNeedsManual Status = "needs_manual"
	StatusDone        Status = "done"
)

var allStatuses = []Status{
	StatusPending,
	StatusError,
	StatusNeedsManual,
	StatusDone,
}

// EditableStatuses are the states from which confirm and edit are allowed.
var EditableStatuses = []Status{StatusPending, StatusError, StatusNeedsManual}

// AllStatuses returns every known status in display order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Editable reports whether the status still accepts confirm and edit.
func (s Status) Editable() bool {
	for _, status := range EditableStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Item is one audio file under review.
type Item struct {
	ID             int64
	Fingerprint    string
	OriginalPath   string
	StagedPath     string
	VideoTitle     string
	Channel        string
	InferredTitle  string
	InferredArtist string
	CurrentTitle   string
	CurrentArtist  string
	Genre          string
	Extension      string
	ArtworkPath    string
	Status         Status
	ErrorMessage   string
	RawInference   string
	LibraryPath    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayTitle returns the best available title for listings.
func (i *Item) DisplayTitle() string {
	if i == nil {
		return ""
	}
	for _, candidate := range []string{i.CurrentTitle, i.InferredTitle, i.VideoTitle} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// StagingDir returns the per-item staging directory (the parent of StagedPath).
func (i *Item) StagingDir() string {
	if i == nil || strings.TrimSpace(i.StagedPath) == "" {
		return ""
	}
	idx := strings.LastIndexAny(i.StagedPath, `/\`)
	if idx <= 0 {
		return ""
	}
	return i.StagedPath[:idx]
}

// LibraryTrack is a file already inside the canonical library tree.
type LibraryTrack struct {
	ID           int64
	Path         string
	Title        string
	Artist       string
	Album        string
	AlbumArtist  string
	Genre        string
	Year         int
	TrackNumber  int
	DiscNumber   int
	Duration     time.Duration
	FileSize     int64
	FileModified time.Time
	HasArtwork   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TrackStamp captures the size and mtime recorded for an indexed file.
type TrackStamp struct {
	FileSize     int64
	FileModified time.Time
}

// ArtistCount is an artist name with the number of library tracks credited to it.
type ArtistCount struct {
	Name       string
	TrackCount int
	AlbumCount int
}

// LibraryStats summarizes the indexed library.
type LibraryStats struct {
	Tracks      int
	Artists     int
	Albums      int
	Genres      int
	WithArtwork int
	TotalBytes  int64
	Duration    time.Duration
}
