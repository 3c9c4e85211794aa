package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"tuneshelf/internal/config"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/tags"
)

// PassName identifies library index passes in scan status.
const PassName = "library"

// Indexer keeps the library_tracks table in step with library_dir.
type Indexer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewIndexer constructs an indexer.
func NewIndexer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Indexer {
	return &Indexer{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, "library")}
}

// Pass returns a scanner pass over the library. When force is false, files
// whose size and mtime match the index are skipped.
func (ix *Indexer) Pass(force bool) *Pass {
	return &Pass{indexer: ix, force: force}
}

// IndexFile reads path and upserts its row.
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	track, err := TrackFromFile(path)
	if err != nil {
		return err
	}
	if err := ix.store.UpsertTrack(ctx, track); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	return nil
}

// TrackFromFile builds an index row from the tags and stat of path.
func TrackFromFile(path string) (*queue.LibraryTrack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	meta, err := tags.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return &queue.LibraryTrack{
		Path:         path,
		Title:        meta.Title,
		Artist:       meta.Artist,
		Album:        meta.Album,
		AlbumArtist:  meta.AlbumArtist,
		Genre:        meta.Genre,
		Year:         meta.Year,
		TrackNumber:  meta.TrackNumber,
		DiscNumber:   meta.DiscNumber,
		Duration:     meta.Duration,
		FileSize:     info.Size(),
		FileModified: info.ModTime(),
		HasArtwork:   meta.HasArtwork,
	}, nil
}

// Pass is one index run. It satisfies scanner.Pass.
type Pass struct {
	indexer *Indexer
	force   bool
	stamps  map[string]queue.TrackStamp

	indexed atomic.Int64
	skipped atomic.Int64
	removed atomic.Int64
}

var _ scanner.Pass = (*Pass)(nil)

func (p *Pass) Name() string { return PassName }

// Enumerate lists audio files under library_dir and prunes index rows whose
// files no longer exist.
func (p *Pass) Enumerate(ctx context.Context) ([]string, error) {
	ix := p.indexer
	root := ix.cfg.Paths.LibraryDir
	files, err := scanner.ListFiles(ctx, root, func(path string) bool {
		return ix.cfg.HasExtension(filepath.Ext(path))
	})
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	stamps, err := ix.store.TrackStamps(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(files))
	for _, path := range files {
		present[path] = struct{}{}
	}
	var missing []string
	for path := range stamps {
		if _, ok := present[path]; !ok {
			missing = append(missing, path)
			delete(stamps, path)
		}
	}
	if len(missing) > 0 {
		removed, err := ix.store.RemoveTracks(ctx, missing)
		if err != nil {
			return nil, err
		}
		p.removed.Add(int64(removed))
		ix.logger.Info("pruned missing library files",
			logging.String(logging.FieldEventType, "library_pruned"),
			logging.Int("removed", removed),
		)
	}
	p.stamps = stamps
	return files, nil
}

// Process indexes a single file.
func (p *Pass) Process(ctx context.Context, path string) error {
	if !p.force {
		if stamp, ok := p.stamps[path]; ok {
			info, err := os.Stat(path)
			if err == nil && info.Size() == stamp.FileSize && info.ModTime().Equal(stamp.FileModified) {
				p.skipped.Add(1)
				return nil
			}
		}
	}
	if err := p.indexer.IndexFile(ctx, path); err != nil {
		return err
	}
	p.indexed.Add(1)
	return nil
}

// Counts reports how many files were indexed, skipped as unchanged, and
// pruned from the index during this pass.
func (p *Pass) Counts() (indexed, skipped, removed int) {
	return int(p.indexed.Load()), int(p.skipped.Load()), int(p.removed.Load())
}
