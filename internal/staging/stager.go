package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tuneshelf/internal/fileutil"
	"tuneshelf/internal/logging"
)

// StagedFile describes the working copy produced by Stage.
type StagedFile struct {
	Dir  string
	Path string
	Size int64
}

// Stager copies intake files into per-item staging directories.
type Stager struct {
	root   string
	logger *slog.Logger
}

// NewStager returns a Stager rooted at root.
func NewStager(root string, logger *slog.Logger) *Stager {
	return &Stager{root: root, logger: logging.NewComponentLogger(logger, "staging")}
}

// Root returns the staging root directory.
func (s *Stager) Root() string { return s.root }

// Stage copies source into a fresh <root>/<uuid>/ directory. The source is
// only read. When the copy fails the new directory is removed.
func (s *Stager) Stage(ctx context.Context, source string) (StagedFile, error) {
	if strings.TrimSpace(s.root) == "" {
		return StagedFile{}, fmt.Errorf("staging root not configured")
	}
	if err := ctx.Err(); err != nil {
		return StagedFile{}, err
	}
	info, err := os.Stat(source)
	if err != nil {
		return StagedFile{}, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return StagedFile{}, fmt.Errorf("%s is not a regular file", source)
	}

	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StagedFile{}, fmt.Errorf("create staging dir: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(source))
	if err := fileutil.CopyVerified(source, target); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.WarnWithContext(s.logger, "failed to remove staging dir after copy failure", "staging_cleanup_failed",
				logging.String(logging.FieldPath, dir),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return StagedFile{}, fmt.Errorf("copy into staging: %w", err)
	}

	s.logger.Debug("staged file",
		logging.String("source", source),
		logging.String(logging.FieldPath, target),
		logging.Int64("size", info.Size()),
		logging.String(logging.FieldEventType, "file_staged"),
	)
	return StagedFile{Dir: dir, Path: target, Size: info.Size()}, nil
}
