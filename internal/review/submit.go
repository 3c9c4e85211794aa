package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tuneshelf/internal/events"
	"tuneshelf/internal/inference"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/notifications"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/services"
	"tuneshelf/internal/staging"
	"tuneshelf/internal/tags"
)

// SubmitForReview stages an intake file, infers its metadata and records it
// as a review item. A file whose fingerprint is already known returns the
// existing item with created=false and is not staged again.
func (s *Service) SubmitForReview(ctx context.Context, path string) (*queue.Item, bool, error) {
	logger := s.logger.With(logging.String(logging.FieldPath, path))

	fingerprint, err := stagingFingerprint(path)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	hints, parseErr := inference.ParseHints(path)
	item := &queue.Item{
		Fingerprint:  fingerprint,
		OriginalPath: path,
		VideoTitle:   hints.VideoTitle,
		Channel:      hints.Channel,
		Extension:    strings.ToLower(filepath.Ext(path)),
	}

	staged, err := s.stager.Stage(ctx, path)
	if err != nil {
		stageErr := services.Wrap(services.ErrWrite, "review", "stage", "failed to stage intake file", err)
		logging.WarnWithContext(logger, "staging failed", "staging_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions and free space"),
			logging.String(logging.FieldImpact, "item recorded in error state"),
		)
		item.Status = services.FailureStatus(stageErr)
		item.ErrorMessage = services.Message(stageErr)
		stored, created, err := s.insert(ctx, item, "")
		if err != nil || !created {
			return stored, created, err
		}
		s.publish(events.ItemError, stored)
		s.notify(ctx, notifications.EventItemFailed, notifications.Payload{
			"label": labelFor(stored),
			"error": stored.ErrorMessage,
		})
		return stored, true, nil
	}
	item.StagedPath = staged.Path

	embedded, readErr := tags.Read(staged.Path)
	if readErr != nil {
		logger.Debug("embedded tags unavailable", logging.Error(readErr))
		embedded = nil
	} else if embedded != nil {
		item.Genre = strings.TrimSpace(embedded.Genre)
	}

	result := s.resolver.Resolve(ctx, hints, embedded)
	item.InferredTitle = result.Title
	item.InferredArtist = result.Artist
	item.CurrentTitle = result.Title
	item.CurrentArtist = result.Artist
	item.RawInference = result.RawTrace

	if result.Title != "" && result.Artist != "" {
		item.Status = queue.StatusPending
	} else {
		item.Status = queue.StatusNeedsManual
		item.ErrorMessage = joinMessages(parseErr, result.Error)
		if item.ErrorMessage == "" {
			item.ErrorMessage = "title or artist could not be inferred"
		}
	}

	stored, created, err := s.insert(ctx, item, staged.Dir)
	if err != nil || !created {
		return stored, created, err
	}
	s.cacheArtwork(ctx, stored)

	logger.Info("item ready for review",
		logging.String(logging.FieldEventType, "item_submitted"),
		logging.Int64(logging.FieldItemID, stored.ID),
		logging.String("status", string(stored.Status)),
		logging.String("source", result.Source),
	)
	s.publish(events.ItemUpdated, stored)
	s.notify(ctx, notifications.EventReviewNeeded, notifications.Payload{
		"label":  labelFor(stored),
		"status": string(stored.Status),
	})
	return stored, true, nil
}

// insert stores item. When another submission won the race for the same
// fingerprint, stagedDir is discarded and the winner is returned.
func (s *Service) insert(ctx context.Context, item *queue.Item, stagedDir string) (*queue.Item, bool, error) {
	stored, created, err := s.store.InsertItem(ctx, item)
	if err != nil || !created {
		if stagedDir != "" {
			_ = os.RemoveAll(stagedDir)
		}
		return stored, false, err
	}
	return stored, true, nil
}

// cacheArtwork extracts embedded artwork into <artwork_dir>/<id><ext>.
func (s *Service) cacheArtwork(ctx context.Context, item *queue.Item) {
	if item.StagedPath == "" || strings.TrimSpace(s.cfg.Paths.ArtworkDir) == "" {
		return
	}
	logger := s.logger.With(logging.Int64(logging.FieldItemID, item.ID))
	data, mime, err := tags.ExtractArtwork(item.StagedPath)
	if err != nil {
		logger.Debug("artwork extraction failed", logging.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}
	if err := os.MkdirAll(s.cfg.Paths.ArtworkDir, 0o755); err != nil {
		logging.WarnWithContext(logger, "artwork dir unavailable", "artwork_cache_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "artwork will not be shown or re-embedded"),
		)
		return
	}
	target := filepath.Join(s.cfg.Paths.ArtworkDir, fmt.Sprintf("%d%s", item.ID, tags.ArtworkExtension(mime)))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		logging.WarnWithContext(logger, "artwork write failed", "artwork_cache_failed",
			logging.String(logging.FieldPath, target),
			logging.Error(err),
			logging.String(logging.FieldImpact, "artwork will not be shown or re-embedded"),
		)
		return
	}
	item.ArtworkPath = target
	if err := s.store.Update(ctx, item); err != nil {
		logging.WarnWithContext(logger, "artwork path not recorded", "artwork_cache_failed",
			logging.Error(err),
		)
	}
}

func joinMessages(errs ...error) string {
	var parts []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		parts = append(parts, services.Message(err))
	}
	return strings.Join(parts, "; ")
}

func labelFor(item *queue.Item) string {
	if title := item.DisplayTitle(); title != "" {
		return title
	}
	return filepath.Base(item.OriginalPath)
}

func stagingFingerprint(path string) (string, error) {
	fp, err := staging.Fingerprint(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "review", "fingerprint", "intake file vanished", err)
		}
		return "", services.Wrap(services.ErrWrite, "review", "fingerprint", "failed to fingerprint intake file", err)
	}
	return fp, nil
}
