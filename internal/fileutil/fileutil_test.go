package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCopyFileAppliesPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	dst := filepath.Join(dir, "copy.mp3")
	writeFile(t, src, "frames")

	if err := CopyFile(src, dst, 0o600); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %o", info.Mode().Perm())
	}
	if got, _ := os.ReadFile(dst); string(got) != "frames" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestCopyFileTruncatesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "short.mp3")
	dst := filepath.Join(dir, "long.mp3")
	writeFile(t, src, "ab")
	writeFile(t, dst, "a much longer previous body")

	if err := CopyFile(src, dst, 0o644); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "ab" {
		t.Fatalf("expected truncated copy, got %q", got)
	}
}

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.flac")
	dst := filepath.Join(dir, "staged.flac")
	writeFile(t, src, "verified copy content")

	if err := CopyVerified(src, dst); err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "verified copy content" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyVerified(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if Exists(filepath.Join(dir, "dst")) {
		t.Fatal("no target should be created for a missing source")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "dst.mp3")
	writeFile(t, src, "audio")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if Exists(src) {
		t.Fatal("source should be gone after move")
	}
	if got, _ := os.ReadFile(dst); string(got) != "audio" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := MoveFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Fatal("temp dir should exist")
	}
	if Exists(filepath.Join(dir, "nope")) {
		t.Fatal("missing path should report false")
	}
	link := filepath.Join(dir, "dangling")
	if err := os.Symlink(filepath.Join(dir, "gone"), link); err != nil {
		t.Fatal(err)
	}
	if !Exists(link) {
		t.Fatal("a dangling symlink still occupies its name")
	}
}
