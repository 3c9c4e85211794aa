package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertItem records a newly staged item. When another item already owns the
// fingerprint the existing row is returned with inserted=false.
func (s *Store) InsertItem(ctx context.Context, item *Item) (*Item, bool, error) {
	if item == nil {
		return nil, false, errors.New("item is nil")
	}
	if strings.TrimSpace(item.Fingerprint) == "" {
		return nil, false, errors.New("fingerprint is required")
	}
	if item.Status == "" {
		item.Status = StatusPending
	}
	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.execResult(
		ctx,
		`INSERT INTO ingest_items (
            fingerprint, original_path, staged_path, video_title, channel,
            inferred_title, inferred_artist, current_title, current_artist,
            genre, extension, artwork_path, status, error_message, raw_inference,
            library_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(fingerprint) DO NOTHING`,
		item.Fingerprint,
		item.OriginalPath,
		nullableString(item.StagedPath),
		nullableString(item.VideoTitle),
		nullableString(item.Channel),
		nullableString(item.InferredTitle),
		nullableString(item.InferredArtist),
		nullableString(item.CurrentTitle),
		nullableString(item.CurrentArtist),
		nullableString(item.Genre),
		nullableString(item.Extension),
		nullableString(item.ArtworkPath),
		string(item.Status),
		nullableString(item.ErrorMessage),
		nullableString(item.RawInference),
		nullableString(item.LibraryPath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		existing, findErr := s.FindByFingerprint(ctx, item.Fingerprint)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("fingerprint %s conflicted but no row found", item.Fingerprint)
		}
		return existing, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	stored, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

// GetByID fetches an item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ingest_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindByFingerprint returns the item owning a fingerprint, or nil.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM ingest_items WHERE fingerprint = ? LIMIT 1`,
		fingerprint,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return item, nil
}

// FindByOriginalPath returns the newest item staged from an intake path, or nil.
func (s *Store) FindByOriginalPath(ctx context.Context, path string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM ingest_items WHERE original_path = ? ORDER BY id DESC LIMIT 1`,
		path,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by original path: %w", err)
	}
	return item, nil
}

// List returns items ordered newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + itemColumns + ` FROM ingest_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Update persists the mutable fields of an existing item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := s.execResult(
		ctx,
		`UPDATE ingest_items
         SET staged_path = ?, video_title = ?, channel = ?, inferred_title = ?,
             inferred_artist = ?, current_title = ?, current_artist = ?, genre = ?,
             extension = ?, artwork_path = ?, status = ?, error_message = ?,
             raw_inference = ?, library_path = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.StagedPath),
		nullableString(item.VideoTitle),
		nullableString(item.Channel),
		nullableString(item.InferredTitle),
		nullableString(item.InferredArtist),
		nullableString(item.CurrentTitle),
		nullableString(item.CurrentArtist),
		nullableString(item.Genre),
		nullableString(item.Extension),
		nullableString(item.ArtworkPath),
		string(item.Status),
		nullableString(item.ErrorMessage),
		nullableString(item.RawInference),
		nullableString(item.LibraryPath),
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(res, item.ID)
}

// MarkDone moves an editable item to done, recording where it landed in the
// library. It fails with ErrStaleStatus when the item already left the
// editable states.
func (s *Store) MarkDone(ctx context.Context, id int64, libraryPath string) error {
	args := []any{string(StatusDone), nullableString(libraryPath), formatTime(time.Now()), id}
	args = append(args, statusArgs(EditableStatuses)...)
	res, err := s.execResult(
		ctx,
		`UPDATE ingest_items
         SET status = ?, error_message = NULL, library_path = ?, updated_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(EditableStatuses))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("item %d: %w", id, ErrStaleStatus)
	}
	return nil
}

// MarkError records a failure against an item and sets its status.
func (s *Store) MarkError(ctx context.Context, id int64, status Status, message string) error {
	if status == "" {
		status = StatusError
	}
	res, err := s.execResult(
		ctx,
		`UPDATE ingest_items SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status),
		nullableString(message),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return requireAffected(res, id)
}

// Remove deletes an item row. It reports false when no row existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execResult(ctx, `DELETE FROM ingest_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns item counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM ingest_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		stats[status] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// StagedPaths returns the staged file path of every item not yet done.
func (s *Store) StagedPaths(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	args := statusArgs(EditableStatuses)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT staged_path FROM ingest_items
         WHERE staged_path IS NOT NULL AND status IN (`+makePlaceholders(len(args))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("staged paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan staged path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}
