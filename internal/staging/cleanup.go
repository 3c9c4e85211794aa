package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tuneshelf/internal/logging"
)

// CleanResult reports what an orphan sweep did. Failed maps a directory (or
// the staging root itself when it could not be listed) to its error.
type CleanResult struct {
	Removed []string
	Failed  map[string]error
}

// CleanOrphaned removes every <root>/<uuid> directory that holds none of the
// staged files in live. Loose files directly under root are left alone.
func CleanOrphaned(ctx context.Context, root string, live []string, logger *slog.Logger) CleanResult {
	var result CleanResult
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	fail := func(path string, err error) {
		if result.Failed == nil {
			result.Failed = make(map[string]error)
		}
		result.Failed[path] = err
	}

	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return result
	}
	if err != nil {
		fail(root, err)
		return result
	}

	referenced := referencedDirs(root, live)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			fail(dir, err)
			logging.WarnWithContext(logger, "orphaned staging directory not removed", "staging_cleanup_failed",
				logging.String(logging.FieldPath, dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		logger.Info("orphaned staging directory removed",
			logging.String(logging.FieldEventType, "staging_cleanup"),
			logging.String(logging.FieldPath, dir),
		)
	}
	return result
}

// referencedDirs returns the names of the staging subdirectories that contain
// one of the staged paths. Paths outside root are ignored.
func referencedDirs(root string, staged []string) map[string]bool {
	root = filepath.Clean(root)
	names := make(map[string]bool, len(staged))
	for _, path := range staged {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		dir := filepath.Dir(filepath.Clean(path))
		if filepath.Dir(dir) == root {
			names[filepath.Base(dir)] = true
		}
	}
	return names
}
