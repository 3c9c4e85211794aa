// Package commit writes confirmed metadata into a staged audio file without
// ever leaving it half-written.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tuneshelf/internal/fileutil"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/services"
	"tuneshelf/internal/tags"
)

// Request is the metadata to commit. Artwork is optional.
type Request struct {
	Title       string
	Artist      string
	Genre       string
	Album       string
	AlbumArtist string
	Artwork     []byte
	ArtworkMime string
}

func (r Request) fields() tags.Fields {
	fields := tags.Fields{
		Title:  tags.Ptr(strings.TrimSpace(r.Title)),
		Artist: tags.Ptr(strings.TrimSpace(r.Artist)),
		Genre:  tags.Ptr(strings.TrimSpace(r.Genre)),
	}
	if album := strings.TrimSpace(r.Album); album != "" {
		fields.Album = tags.Ptr(album)
	}
	if albumArtist := strings.TrimSpace(r.AlbumArtist); albumArtist != "" {
		fields.AlbumArtist = tags.Ptr(albumArtist)
	}
	return fields
}

// Engine applies Requests to staged files.
type Engine struct {
	logger       *slog.Logger
	embedArtwork func(path string, data []byte, mime string) error
}

// NewEngine constructs a commit engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:       logging.NewComponentLogger(logger, "commit"),
		embedArtwork: tags.EmbedArtwork,
	}
}

// Commit copies stagedPath to a hidden sibling, tags and verifies the copy,
// then renames it over stagedPath. Any failure removes the copy and leaves
// stagedPath untouched. When the artwork cannot be embedded, or the tags no
// longer verify after embedding, the copy is rebuilt and committed without
// artwork.
func (e *Engine) Commit(ctx context.Context, stagedPath string, req Request) error {
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldPath, stagedPath))
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrWrite, "commit", "start", "commit cancelled", err)
	}

	info, err := os.Stat(stagedPath)
	if err != nil {
		return services.Wrap(services.ErrWrite, "commit", "stat staged file", "staged file unavailable", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrWrite, "commit", "stat staged file", "staged path is a directory", nil)
	}

	started := time.Now()
	tmp := tempSibling(stagedPath)
	committed := false
	defer func() {
		if !committed {
			if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
				logging.WarnWithContext(logger, "failed to remove commit temp file", "commit_cleanup_failed",
					logging.String("temp_path", tmp),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "remove the hidden .tmp file next to the staged file"),
				)
			}
		}
	}()

	fields := req.fields()
	if err := e.prepare(logger, stagedPath, tmp, info.Mode().Perm(), fields); err != nil {
		return err
	}
	if len(req.Artwork) > 0 {
		if err := e.addArtwork(tmp, req, fields); err != nil {
			logging.WarnWithContext(logger, "artwork embed failed; committing without artwork", "commit_artwork_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "library file has no embedded cover"),
			)
			if err := e.prepare(logger, stagedPath, tmp, info.Mode().Perm(), fields); err != nil {
				return err
			}
		}
	}

	if err := os.Rename(tmp, stagedPath); err != nil {
		return services.Wrap(services.ErrWrite, "commit", "replace staged file", "failed to replace staged file", err)
	}
	committed = true

	logger.Info("metadata committed",
		logging.String(logging.FieldEventType, "commit_completed"),
		logging.String("title", req.Title),
		logging.String("artist", req.Artist),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// prepare (re)creates tmp as a copy of stagedPath carrying fields.
func (e *Engine) prepare(logger *slog.Logger, stagedPath, tmp string, perm os.FileMode, fields tags.Fields) error {
	if err := fileutil.CopyFile(stagedPath, tmp, perm); err != nil {
		return services.Wrap(services.ErrWrite, "commit", "copy", "failed to create working copy", err)
	}
	if err := tags.WriteVerified(tmp, fields); err != nil {
		logging.ErrorWithContext(logger, "metadata write failed", "commit_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "file may use an unsupported tag layout"),
		)
		return services.Wrap(services.ErrWrite, "commit", "write tags", "failed to write metadata", err)
	}
	return nil
}

// addArtwork embeds the cover into tmp and re-reads the text fields, since
// saving the picture rewrites the tag block.
func (e *Engine) addArtwork(tmp string, req Request, fields tags.Fields) error {
	if err := e.embedArtwork(tmp, req.Artwork, req.ArtworkMime); err != nil {
		return err
	}
	if err := tags.Verify(tmp, fields); err != nil {
		return fmt.Errorf("verify after artwork: %w", err)
	}
	return nil
}

// tempSibling returns ".<name>.tmp-<uuid><ext>" next to path. The extension is
// kept so the tag codec can still identify the family.
func tempSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s%s", name, uuid.NewString(), ext))
}
