package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tuneshelf/internal/commit"
	"tuneshelf/internal/events"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/notifications"
	"tuneshelf/internal/organizer"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/services"
)

// Confirm commits the approved metadata and moves the item into the library.
// Validation failures leave the item untouched. Any later failure marks the
// item as error and leaves the intake original in place.
func (s *Service) Confirm(ctx context.Context, id int64, in ConfirmInput) (*queue.Item, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx = services.WithItemID(ctx, id)
	logger := logging.WithContext(ctx, s.logger)

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.Editable() {
		return nil, validationError("confirm", fmt.Sprintf("item is %s and can no longer be confirmed", item.Status))
	}
	in = in.normalized()
	if err := validateConfirm(in, s.cfg.Library.OtherGenreSentinel); err != nil {
		return nil, err
	}
	if item.StagedPath == "" {
		return nil, s.fail(ctx, item, services.Wrap(services.ErrWrite, "review", "confirm",
			"item has no staged file; delete it and drop the file into intake again", nil))
	}

	item.CurrentTitle = in.Title
	item.CurrentArtist = in.Artist
	item.Genre = in.Genre
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}

	album := strings.TrimSpace(s.cfg.Library.AlbumName)
	req := commit.Request{
		Title:       in.Title,
		Artist:      in.Artist,
		Genre:       in.Genre,
		Album:       album,
		AlbumArtist: in.Artist,
	}
	if item.ArtworkPath != "" {
		if data, err := os.ReadFile(item.ArtworkPath); err == nil && len(data) > 0 {
			req.Artwork = data
			req.ArtworkMime = http.DetectContentType(data)
		} else if err != nil {
			logger.Debug("cached artwork unavailable", logging.Error(err))
		}
	}
	if err := s.committer.Commit(ctx, item.StagedPath, req); err != nil {
		return nil, s.fail(ctx, item, err)
	}

	ext := item.Extension
	if ext == "" {
		ext = filepath.Ext(item.StagedPath)
	}
	dest := organizer.Destination(s.cfg.Paths.LibraryDir, in.Artist, album, in.Title, ext)
	final, err := s.mover.Move(ctx, item.StagedPath, dest)
	if err != nil {
		return nil, s.fail(ctx, item, err)
	}

	if err := s.store.MarkDone(ctx, id, final); err != nil {
		logging.ErrorWithContext(logger, "file moved but item not marked done", "confirm_record_failed",
			logging.String(logging.FieldPath, final),
			logging.Error(err),
			logging.String(logging.FieldImpact, "library file exists while the item still shows as open"),
		)
		return nil, err
	}

	s.cleanupAfterConfirm(ctx, item)
	if err := s.indexer.IndexFile(ctx, final); err != nil {
		logging.WarnWithContext(logger, "library index refresh failed", "library_index_failed",
			logging.String(logging.FieldPath, final),
			logging.Error(err),
			logging.String(logging.FieldImpact, "artist suggestions miss this track until the next library scan"),
		)
	}

	done, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Info("item confirmed",
		logging.String(logging.FieldEventType, "item_confirmed"),
		logging.String(logging.FieldPath, final),
		logging.String("artist", in.Artist),
		logging.String("title", in.Title),
	)
	s.publish(events.ItemConfirmed, done)
	s.notify(ctx, notifications.EventItemConfirmed, notifications.Payload{
		"title":       in.Title,
		"artist":      in.Artist,
		"libraryPath": final,
	})
	return done, nil
}

// fail records err on the item and returns it.
func (s *Service) fail(ctx context.Context, item *queue.Item, err error) error {
	logger := logging.WithContext(ctx, s.logger)
	message := services.Message(err)
	status := queue.StatusError
	logging.WarnWithContext(logger, "confirm failed", "confirm_failed",
		logging.String("kind", services.KindName(err)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "item kept for another attempt; intake file untouched"),
	)
	if markErr := s.store.MarkError(ctx, item.ID, status, message); markErr != nil {
		logging.ErrorWithContext(logger, "failed to record item error", "item_error_record_failed",
			logging.Error(markErr),
		)
	}
	item.Status = status
	item.ErrorMessage = message
	s.publish(events.ItemError, item)
	s.notify(ctx, notifications.EventItemFailed, notifications.Payload{
		"label": labelFor(item),
		"error": message,
	})
	return err
}

// cleanupAfterConfirm removes the intake original and the emptied staging
// directory. Failures are logged only; the item is already done.
func (s *Service) cleanupAfterConfirm(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, s.logger)
	if item.OriginalPath != "" {
		if err := os.Remove(item.OriginalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to remove intake original", "intake_cleanup_failed",
				logging.String(logging.FieldPath, item.OriginalPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file stays in intake and is ignored by fingerprint"),
			)
		}
	}
	s.removeStagingDir(ctx, item)
}

func (s *Service) removeStagingDir(ctx context.Context, item *queue.Item) {
	dir := item.StagingDir()
	if dir == "" || !withinDir(s.cfg.Paths.StagingDir, dir) {
		if item.StagedPath != "" {
			_ = os.Remove(item.StagedPath)
		}
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "failed to remove staging dir", "staging_cleanup_failed",
			logging.String(logging.FieldPath, dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "orphan cleanup reclaims it on next start"),
		)
	}
}

func withinDir(root, path string) bool {
	root = filepath.Clean(root)
	rel, err := filepath.Rel(root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
