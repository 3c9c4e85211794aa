package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const itemColumns = "id, fingerprint, original_path, staged_path, video_title, channel, inferred_title, inferred_artist, current_title, current_artist, genre, extension, artwork_path, status, error_message, raw_inference, library_path, created_at, updated_at"

const trackColumns = "id, path, title, artist, album, album_artist, genre, year, track_number, disc_number, duration_ms, file_size, file_modified, has_artwork, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		id             int64
		fingerprint    string
		originalPath   string
		stagedPath     sql.NullString
		videoTitle     sql.NullString
		channel        sql.NullString
		inferredTitle  sql.NullString
		inferredArtist sql.NullString
		currentTitle   sql.NullString
		currentArtist  sql.NullString
		genre          sql.NullString
		extension      sql.NullString
		artworkPath    sql.NullString
		statusStr      string
		errorMessage   sql.NullString
		rawInference   sql.NullString
		libraryPath    sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&fingerprint,
		&originalPath,
		&stagedPath,
		&videoTitle,
		&channel,
		&inferredTitle,
		&inferredArtist,
		&currentTitle,
		&currentArtist,
		&genre,
		&extension,
		&artworkPath,
		&statusStr,
		&errorMessage,
		&rawInference,
		&libraryPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:             id,
		Fingerprint:    fingerprint,
		OriginalPath:   originalPath,
		StagedPath:     stagedPath.String,
		VideoTitle:     videoTitle.String,
		Channel:        channel.String,
		InferredTitle:  inferredTitle.String,
		InferredArtist: inferredArtist.String,
		CurrentTitle:   currentTitle.String,
		CurrentArtist:  currentArtist.String,
		Genre:          genre.String,
		Extension:      extension.String,
		ArtworkPath:    artworkPath.String,
		Status:         Status(statusStr),
		ErrorMessage:   errorMessage.String,
		RawInference:   rawInference.String,
		LibraryPath:    libraryPath.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func scanTrack(scanner rowScanner) (*LibraryTrack, error) {
	var (
		track       LibraryTrack
		title       sql.NullString
		artist      sql.NullString
		album       sql.NullString
		albumArtist sql.NullString
		genre       sql.NullString
		durationMS  int64
		modifiedRaw sql.NullString
		hasArtwork  int
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&track.ID,
		&track.Path,
		&title,
		&artist,
		&album,
		&albumArtist,
		&genre,
		&track.Year,
		&track.TrackNumber,
		&track.DiscNumber,
		&durationMS,
		&track.FileSize,
		&modifiedRaw,
		&hasArtwork,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	track.Title = title.String
	track.Artist = artist.String
	track.Album = album.String
	track.AlbumArtist = albumArtist.String
	track.Genre = genre.String
	track.Duration = time.Duration(durationMS) * time.Millisecond
	track.HasArtwork = hasArtwork != 0
	if modified, err := parseTimeString(modifiedRaw.String); err == nil {
		track.FileModified = modified
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		track.UpdatedAt = updated
	}
	return &track, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}
