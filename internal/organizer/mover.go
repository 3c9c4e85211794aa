package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"tuneshelf/internal/fileutil"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/services"
)

// maxRenameRaces bounds how often Move re-picks a name after losing a race.
const maxRenameRaces = 5

// Mover moves committed files into the library.
type Mover struct {
	logger   *slog.Logger
	validate func(path string, wantSize int64) error
}

// NewMover constructs a Mover.
func NewMover(logger *slog.Logger) *Mover {
	return &Mover{
		logger:   logging.NewComponentLogger(logger, "organizer"),
		validate: validateMoved,
	}
}

// Move places staged at dest, or at the first free " (n)" variant of dest, and
// returns the final path. It never overwrites an existing file. Cancellation
// is only honoured before the rename starts. A library file that fails
// validation is renamed back to staged so the move can be retried; if that
// also fails the move is reported as done, since staged no longer exists.
func (m *Mover) Move(ctx context.Context, staged, dest string) (string, error) {
	logger := logging.WithContext(ctx, m.logger)
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrMove, "organizer", "move", "move cancelled", err)
	}
	info, err := os.Stat(staged)
	if err != nil {
		return "", services.Wrap(services.ErrMove, "organizer", "stat staged file", "staged file unavailable", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		logUnavailable(logger, dest, err)
		return "", services.Wrap(services.ErrMove, "organizer", "create directories", "library destination is not writable", err)
	}

	started := time.Now()
	var final string
	for attempt := 0; ; attempt++ {
		candidate, err := nextFree(dest)
		if err != nil {
			return "", services.Wrap(services.ErrMove, "organizer", "resolve collision", "no free destination name", err)
		}
		err = renameNoReplace(staged, candidate)
		if err == nil {
			final = candidate
			break
		}
		if errors.Is(err, os.ErrExist) && attempt < maxRenameRaces {
			continue
		}
		logUnavailable(logger, candidate, err)
		return "", services.Wrap(services.ErrMove, "organizer", "rename", "failed to move file into library", err)
	}

	if err := m.validate(final, info.Size()); err != nil {
		restoreErr := renameNoReplace(final, staged)
		if restoreErr == nil {
			logging.ErrorWithContext(logger, "moved file failed validation; restored to staging", "organize_validation_failed",
				logging.String("library_path", final),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the library filesystem, then confirm again"),
			)
			return "", services.Wrap(services.ErrMove, "organizer", "validate", "moved file failed validation", err)
		}
		logging.WarnWithContext(logger, "moved file failed validation and could not be restored", "organize_validation_failed",
			logging.String("library_path", final),
			logging.Error(err),
			logging.String("restore_error", restoreErr.Error()),
			logging.String(logging.FieldErrorHint, "inspect the library file by hand"),
			logging.String(logging.FieldImpact, "library file kept as moved"),
		)
	}

	logger.Info("track organized",
		logging.String(logging.FieldEventType, "organize_completed"),
		logging.String("staged_path", staged),
		logging.String("library_path", final),
		logging.Bool("renamed_for_collision", final != dest),
		logging.Duration("elapsed", time.Since(started)),
	)
	return final, nil
}

// renameNoReplace renames src to dst and fails with os.ErrExist instead of
// replacing dst. Kernels or filesystems without RENAME_NOREPLACE fall back to
// an existence check followed by a plain rename.
func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return fmt.Errorf("rename %s: %w", dst, os.ErrExist)
	case errors.Is(err, unix.EXDEV):
		if fileutil.Exists(dst) {
			return fmt.Errorf("rename %s: %w", dst, os.ErrExist)
		}
		return fileutil.MoveFile(src, dst)
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		if fileutil.Exists(dst) {
			return fmt.Errorf("rename %s: %w", dst, os.ErrExist)
		}
		return fileutil.MoveFile(src, dst)
	default:
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
}

// validateMoved checks that the library file is a regular file of the
// expected size.
func validateMoved(path string, wantSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() != wantSize {
		return fmt.Errorf("%s has %d bytes, expected %d", path, info.Size(), wantSize)
	}
	return nil
}

var libraryUnavailableErrors = []error{
	unix.ENODEV,
	unix.ENOTCONN,
	unix.EHOSTDOWN,
	unix.EHOSTUNREACH,
	unix.ETIMEDOUT,
	unix.EIO,
	unix.ESTALE,
	unix.EROFS,
	unix.EACCES,
}

func isLibraryUnavailable(err error) bool {
	for _, target := range libraryUnavailableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func logUnavailable(logger *slog.Logger, path string, err error) {
	hint := "check library_dir permissions and free space"
	if isLibraryUnavailable(err) {
		hint = "library filesystem is unavailable or read-only; check the mount"
	}
	logging.ErrorWithContext(logger, "library move failed", "organize_failed",
		logging.String("destination", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
	)
}
