package api

import (
	"errors"
	"net/http"
	"time"

	"tuneshelf/internal/matching"
	"tuneshelf/internal/organizer"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/services"
)

// FromItem converts a queue record to its API representation.
func FromItem(item *queue.Item) Item {
	if item == nil {
		return Item{}
	}
	dto := Item{
		ID:             item.ID,
		Status:         string(item.Status),
		Label:          item.DisplayTitle(),
		OriginalPath:   item.OriginalPath,
		StagedPath:     item.StagedPath,
		VideoTitle:     item.VideoTitle,
		Channel:        item.Channel,
		InferredTitle:  item.InferredTitle,
		InferredArtist: item.InferredArtist,
		Title:          item.CurrentTitle,
		Artist:         item.CurrentArtist,
		Genre:          item.Genre,
		Extension:      item.Extension,
		HasArtwork:     item.ArtworkPath != "",
		ErrorMessage:   item.ErrorMessage,
		RawInference:   item.RawInference,
		LibraryPath:    item.LibraryPath,
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
	}
	return dto
}

// FromItems converts a slice of queue records into API DTOs. The result is
// never nil so it encodes as an empty JSON array.
func FromItems(items []*queue.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromDryRun converts an organizer report.
func FromDryRun(report organizer.DryRunReport) DryRunResponse {
	return DryRunResponse{
		Destination:             report.Destination,
		FinalPath:               report.FinalPath,
		RootExists:              report.RootExists,
		RootWritable:            report.RootWritable,
		NearestExistingAncestor: report.NearestExistingAncestor,
		AncestorWritable:        report.AncestorWritable,
		WouldCollide:            report.WouldCollide,
	}
}

// FromMatches converts matcher results.
func FromMatches(matches []matching.Match) []ArtistMatch {
	out := make([]ArtistMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, ArtistMatch{
			Name:           m.Name,
			Score:          m.Score,
			TrackCount:     m.TrackCount,
			NormalizedName: m.NormalizedName,
		})
	}
	return out
}

// FromArtistCounts converts library artist rows.
func FromArtistCounts(counts []queue.ArtistCount) []Artist {
	out := make([]Artist, 0, len(counts))
	for _, c := range counts {
		out = append(out, Artist{Name: c.Name, TrackCount: c.TrackCount, AlbumCount: c.AlbumCount})
	}
	return out
}

// FromLibraryStats converts library totals.
func FromLibraryStats(stats queue.LibraryStats) LibraryStats {
	return LibraryStats{
		Tracks:          stats.Tracks,
		Artists:         stats.Artists,
		Albums:          stats.Albums,
		Genres:          stats.Genres,
		WithArtwork:     stats.WithArtwork,
		TotalBytes:      stats.TotalBytes,
		DurationSeconds: int64(stats.Duration / time.Second),
	}
}

// FromScanStatus converts a worker snapshot.
func FromScanStatus(status scanner.Status) ScanStatus {
	dto := ScanStatus{
		Pass:       status.Pass,
		IsScanning: status.IsScanning,
		Total:      status.Total,
		Processed:  status.Processed,
		Errors:     make([]ScanError, 0, len(status.Errors)),
		StartedAt:  formatTime(status.StartedAt),
		FinishedAt: formatTime(status.FinishedAt),
		LastError:  status.LastError,
	}
	for _, e := range status.Errors {
		dto.Errors = append(dto.Errors, ScanError{Path: e.Path, Message: e.Message, At: formatTime(e.At)})
	}
	return dto
}

// StatusCounts converts per-status counts into a map keyed by every known
// status, zero-filled.
func StatusCounts(counts map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = counts[status]
	}
	return out
}

// ErrorStatus maps err onto an HTTP status code and the response body.
func ErrorStatus(err error) (int, ErrorResponse) {
	kind, message := services.Details(err)
	body := ErrorResponse{Error: message, Kind: kind}
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, body
	case errors.Is(err, services.ErrNotFound), errors.Is(err, queue.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, queue.ErrStaleStatus):
		return http.StatusConflict, body
	case errors.Is(err, scanner.ErrAlreadyScanning):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "busy"}
	default:
		return http.StatusInternalServerError, body
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
