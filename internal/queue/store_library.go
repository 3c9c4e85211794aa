package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertTrack inserts or refreshes the index row for a library file keyed by path.
func (s *Store) UpsertTrack(ctx context.Context, track *LibraryTrack) error {
	if track == nil {
		return errors.New("track is nil")
	}
	if strings.TrimSpace(track.Path) == "" {
		return errors.New("track path is required")
	}
	timestamp := formatTime(time.Now())
	var modified any
	if !track.FileModified.IsZero() {
		modified = formatTime(track.FileModified)
	}
	return s.exec(
		ctx,
		`INSERT INTO library_tracks (
            path, title, artist, album, album_artist, genre, year, track_number,
            disc_number, duration_ms, file_size, file_modified, has_artwork,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            title = excluded.title,
            artist = excluded.artist,
            album = excluded.album,
            album_artist = excluded.album_artist,
            genre = excluded.genre,
            year = excluded.year,
            track_number = excluded.track_number,
            disc_number = excluded.disc_number,
            duration_ms = excluded.duration_ms,
            file_size = excluded.file_size,
            file_modified = excluded.file_modified,
            has_artwork = excluded.has_artwork,
            updated_at = excluded.updated_at`,
		track.Path,
		nullableString(track.Title),
		nullableString(track.Artist),
		nullableString(track.Album),
		nullableString(track.AlbumArtist),
		nullableString(track.Genre),
		track.Year,
		track.TrackNumber,
		track.DiscNumber,
		track.Duration.Milliseconds(),
		track.FileSize,
		modified,
		boolToInt(track.HasArtwork),
		timestamp,
		timestamp,
	)
}

// TrackByPath returns the indexed track at path, or nil when absent.
func (s *Store) TrackByPath(ctx context.Context, path string) (*LibraryTrack, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM library_tracks WHERE path = ?`, path)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by path: %w", err)
	}
	return track, nil
}

// ListTracks returns indexed tracks, optionally restricted to one artist.
func (s *Store) ListTracks(ctx context.Context, artist string) ([]*LibraryTrack, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + trackColumns + ` FROM library_tracks`
	var args []any
	if strings.TrimSpace(artist) != "" {
		query += ` WHERE artist = ?`
		args = append(args, strings.TrimSpace(artist))
	}
	query += ` ORDER BY artist, album, disc_number, track_number, title, path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*LibraryTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// TrackStamps returns size and mtime for every indexed path.
func (s *Store) TrackStamps(ctx context.Context) (map[string]TrackStamp, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT path, file_size, file_modified FROM library_tracks`)
	if err != nil {
		return nil, fmt.Errorf("track stamps: %w", err)
	}
	defer rows.Close()

	stamps := make(map[string]TrackStamp)
	for rows.Next() {
		var (
			path     string
			size     int64
			modified sql.NullString
		)
		if err := rows.Scan(&path, &size, &modified); err != nil {
			return nil, fmt.Errorf("scan stamp: %w", err)
		}
		stamp := TrackStamp{FileSize: size}
		if ts, err := parseTimeString(modified.String); err == nil {
			stamp.FileModified = ts
		}
		stamps[path] = stamp
	}
	return stamps, rows.Err()
}

// RemoveTracks deletes index rows for the given paths and returns how many were removed.
func (s *Store) RemoveTracks(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	args := make([]any, len(paths))
	for i, path := range paths {
		args[i] = path
	}
	res, err := s.execResult(
		ctx,
		`DELETE FROM library_tracks WHERE path IN (`+makePlaceholders(len(paths))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("remove tracks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// ArtistCounts lists distinct artists with their track and album counts. A
// non-empty search restricts results to artists containing it.
func (s *Store) ArtistCounts(ctx context.Context, search string) ([]ArtistCount, error) {
	ctx = ensureContext(ctx)
	query := `SELECT artist, COUNT(*), COUNT(DISTINCT album)
        FROM library_tracks
        WHERE artist IS NOT NULL AND TRIM(artist) <> ''`
	var args []any
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		query += ` AND instr(lower(artist), lower(?)) > 0`
		args = append(args, trimmed)
	}
	query += ` GROUP BY artist ORDER BY artist`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("artist counts: %w", err)
	}
	defer rows.Close()

	var counts []ArtistCount
	for rows.Next() {
		var count ArtistCount
		if err := rows.Scan(&count.Name, &count.TrackCount, &count.AlbumCount); err != nil {
			return nil, fmt.Errorf("scan artist count: %w", err)
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// LibraryStats aggregates totals across the indexed library.
func (s *Store) LibraryStats(ctx context.Context) (LibraryStats, error) {
	ctx = ensureContext(ctx)
	var (
		stats      LibraryStats
		durationMS int64
	)
	row := s.db.QueryRowContext(ctx, `SELECT
            COUNT(*),
            COUNT(DISTINCT NULLIF(TRIM(artist), '')),
            COUNT(DISTINCT NULLIF(TRIM(album), '')),
            COUNT(DISTINCT NULLIF(TRIM(genre), '')),
            COALESCE(SUM(has_artwork), 0),
            COALESCE(SUM(file_size), 0),
            COALESCE(SUM(duration_ms), 0)
        FROM library_tracks`)
	if err := row.Scan(
		&stats.Tracks,
		&stats.Artists,
		&stats.Albums,
		&stats.Genres,
		&stats.WithArtwork,
		&stats.TotalBytes,
		&durationMS,
	); err != nil {
		return LibraryStats{}, fmt.Errorf("library stats: %w", err)
	}
	stats.Duration = time.Duration(durationMS) * time.Millisecond
	return stats, nil
}
