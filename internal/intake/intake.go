// Package intake feeds files dropped into intake_dir to the review pipeline.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tuneshelf/internal/config"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/services"
)

// PassName identifies intake passes in scan status.
const PassName = "intake"

// Submitter turns one intake file into a review item.
type Submitter interface {
	SubmitForReview(ctx context.Context, path string) (*queue.Item, bool, error)
}

// Pass scans intake_dir and submits every audio file found. Files already
// known by fingerprint are returned as-is by the submitter.
type Pass struct {
	cfg       *config.Config
	submitter Submitter
	logger    *slog.Logger
	created   int
}

var _ scanner.Pass = (*Pass)(nil)

// NewPass constructs an intake pass.
func NewPass(cfg *config.Config, submitter Submitter, logger *slog.Logger) *Pass {
	return &Pass{cfg: cfg, submitter: submitter, logger: logging.NewComponentLogger(logger, "intake")}
}

func (p *Pass) Name() string { return PassName }

// Enumerate lists audio files under intake_dir.
func (p *Pass) Enumerate(ctx context.Context) ([]string, error) {
	files, err := scanner.ListFiles(ctx, p.cfg.Paths.IntakeDir, func(path string) bool {
		return p.cfg.HasExtension(filepath.Ext(path))
	})
	if err != nil {
		return nil, fmt.Errorf("list intake: %w", err)
	}
	return files, nil
}

// Process submits one file. A file that vanished since enumeration is not an
// error.
func (p *Pass) Process(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		p.logger.Debug("intake file vanished", logging.String(logging.FieldPath, path))
		return nil
	}
	item, created, err := p.submitter.SubmitForReview(ctx, path)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil
		}
		return err
	}
	if created {
		p.created++
		p.logger.Info("intake file submitted",
			logging.String(logging.FieldEventType, "intake_submitted"),
			logging.String(logging.FieldPath, path),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("status", string(item.Status)),
		)
	}
	return nil
}

// Created reports how many new items this pass produced.
func (p *Pass) Created() int { return p.created }
