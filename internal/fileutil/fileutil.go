package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile copies src to dst with the given permissions and syncs dst before
// returning. An existing dst is truncated.
func CopyFile(src, dst string, perm os.FileMode) error {
	_, _, err := copyAndHash(src, dst, perm)
	return err
}

// CopyVerified copies src to dst and then re-reads dst from disk, comparing
// its size and SHA-256 with what was read from src. A mismatching dst is
// removed.
func CopyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	size, sum, err := copyAndHash(src, dst, info.Mode().Perm())
	if err != nil {
		return err
	}
	if size != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), size)
	}
	written, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("re-read copy: %w", err)
	}
	if !bytes.Equal(sum, written) {
		_ = os.Remove(dst)
		return errors.New("copy checksum mismatch")
	}
	return nil
}

// MoveFile renames src to dst, falling back to a verified copy and removal of
// src when they sit on different filesystems.
func MoveFile(src, dst string) error {
	err := unix.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
	if err := CopyVerified(src, dst); err != nil {
		return fmt.Errorf("cross-device copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// Exists reports whether something is at path. A path that cannot be
// inspected counts as existing so callers never overwrite it blindly.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func copyAndHash(src, dst string, perm os.FileMode) (int64, []byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, nil, err
	}
	hash := sha256.New()
	n, err := io.Copy(out, io.TeeReader(in, hash))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, nil, err
	}
	return n, hash.Sum(nil), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return nil, err
	}
	return hash.Sum(nil), nil
}
