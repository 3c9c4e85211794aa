package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tuneshelf/internal/events"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/matching"
	"tuneshelf/internal/organizer"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/services"
)

// Update edits the current title, artist or genre of an open item. The status
// does not change.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*queue.Item, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.Editable() {
		return nil, validationError("update", fmt.Sprintf("item is %s and can no longer be edited", item.Status))
	}
	title := trimmedOr(in.Title, item.CurrentTitle)
	artist := trimmedOr(in.Artist, item.CurrentArtist)
	genre := trimmedOr(in.Genre, item.Genre)
	if err := validateLengths("update", title, artist, genre); err != nil {
		return nil, err
	}
	item.CurrentTitle, item.CurrentArtist, item.Genre = title, artist, genre
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}
	s.publish(events.ItemUpdated, item)
	return item, nil
}

// Delete removes an item together with its staged copy, its intake original
// and its cached artwork. File removals are best effort.
func (s *Service) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx = services.WithItemID(ctx, id)
	logger := logging.WithContext(ctx, s.logger)

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.removeStagingDir(ctx, item)
	for _, path := range []string{item.OriginalPath, item.ArtworkPath} {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if item.Status == queue.StatusDone && path == item.LibraryPath {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to remove item file", "item_cleanup_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file left on disk"),
			)
		}
	}
	if _, err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	logger.Info("item deleted", logging.String(logging.FieldEventType, "item_deleted"))
	s.publish(events.ItemDeleted, item)
	return nil
}

// DryRun reports where the item would land with its current metadata and
// whether the library root is writable. Nothing is changed.
func (s *Service) DryRun(ctx context.Context, id int64) (organizer.DryRunReport, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return organizer.DryRunReport{}, err
	}
	ext := item.Extension
	if ext == "" {
		ext = filepath.Ext(item.OriginalPath)
	}
	artist := firstNonEmpty(item.CurrentArtist, item.InferredArtist)
	title := firstNonEmpty(item.CurrentTitle, item.InferredTitle, item.VideoTitle)
	return organizer.DryRun(s.cfg.Paths.LibraryDir, artist, s.cfg.Library.AlbumName, title, ext), nil
}

// ArtistSuggestions lists existing library artists that look like duplicates
// of artist.
func (s *Service) ArtistSuggestions(ctx context.Context, artist string) ([]matching.Match, error) {
	if strings.TrimSpace(artist) == "" {
		return nil, nil
	}
	candidates, err := s.artistCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return s.thresholds.Suggest(artist, candidates, s.suggestLimit()), nil
}

// ItemArtistSuggestions runs ArtistSuggestions for the item's current artist.
func (s *Service) ItemArtistSuggestions(ctx context.Context, id int64) ([]matching.Match, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ArtistSuggestions(ctx, firstNonEmpty(item.CurrentArtist, item.InferredArtist))
}

// MatchArtists ranks every library artist against query without the
// suggestion cutoff.
func (s *Service) MatchArtists(ctx context.Context, query string, limit int) ([]matching.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationError("match artists", "query is required")
	}
	candidates, err := s.artistCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.suggestLimit()
	}
	return s.thresholds.Rank(query, candidates, limit), nil
}

func (s *Service) artistCandidates(ctx context.Context) ([]matching.Candidate, error) {
	counts, err := s.store.ArtistCounts(ctx, "")
	if err != nil {
		return nil, err
	}
	candidates := make([]matching.Candidate, 0, len(counts))
	for _, c := range counts {
		candidates = append(candidates, matching.Candidate{Name: c.Name, TrackCount: c.TrackCount})
	}
	return candidates, nil
}

func (s *Service) suggestLimit() int {
	if s.cfg.Matching.SuggestLimit > 0 {
		return s.cfg.Matching.SuggestLimit
	}
	return 5
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
