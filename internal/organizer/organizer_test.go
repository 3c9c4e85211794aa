package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tuneshelf/internal/services"
	"tuneshelf/internal/testsupport"
)

func TestDestinationSanitizesSegments(t *testing.T) {
	got := Destination("/lib", "محمد/بو جبارة", "منوعات", `يا "طيبة"?`, "MP3")
	want := filepath.Join("/lib", "محمدبو جبارة", "منوعات", "يا طيبة.mp3")
	if got != want {
		t.Fatalf("Destination = %q, want %q", got, want)
	}
	if got := Destination("/lib", "", "...", "", ".flac"); got != filepath.Join("/lib", "untitled", "untitled", "untitled.flac") {
		t.Fatalf("empty segments not defaulted: %q", got)
	}
}

func TestMoveCollisionSuffix(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()
	mover := NewMover(nil)
	dest := Destination(root, "B", "منوعات", "A", ".mp3")

	first := filepath.Join(staging, "one.mp3")
	second := filepath.Join(staging, "two.mp3")
	testsupport.WriteFile(t, first, 128)
	testsupport.WriteFile(t, second, 256)

	got1, err := mover.Move(context.Background(), first, dest)
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	got2, err := mover.Move(context.Background(), second, dest)
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if got1 != dest {
		t.Fatalf("first move landed at %q, want %q", got1, dest)
	}
	if want := filepath.Join(filepath.Dir(dest), "A (1).mp3"); got2 != want {
		t.Fatalf("second move landed at %q, want %q", got2, want)
	}
	if info, err := os.Stat(got1); err != nil || info.Size() != 128 {
		t.Fatalf("first file overwritten or missing: %v", err)
	}
	if fileExists(first) || fileExists(second) {
		t.Fatal("staged files should be gone after move")
	}
}

func TestMoveRestoresStagedFileWhenValidationFails(t *testing.T) {
	root := t.TempDir()
	staged := filepath.Join(t.TempDir(), "one.mp3")
	testsupport.WriteFile(t, staged, 128)
	dest := Destination(root, "B", "منوعات", "A", ".mp3")

	mover := NewMover(nil)
	mover.validate = func(string, int64) error { return errors.New("short file") }

	got, err := mover.Move(context.Background(), staged, dest)
	if !errors.Is(err, services.ErrMove) {
		t.Fatalf("expected move error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected no library path, got %q", got)
	}
	if info, err := os.Stat(staged); err != nil || info.Size() != 128 {
		t.Fatalf("staged file not restored: %v", err)
	}
	if fileExists(dest) {
		t.Fatal("library file should have been moved back")
	}

	mover.validate = validateMoved
	if got, err := mover.Move(context.Background(), staged, dest); err != nil || got != dest {
		t.Fatalf("retry = %q, %v", got, err)
	}
}

func TestMoveMissingSource(t *testing.T) {
	_, err := NewMover(nil).Move(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), filepath.Join(t.TempDir(), "x.mp3"))
	if !errors.Is(err, services.ErrMove) {
		t.Fatalf("expected move error, got %v", err)
	}
}

func TestMoveUnwritableDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	if err := os.Chmod(root, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	staged := filepath.Join(t.TempDir(), "song.mp3")
	testsupport.WriteFile(t, staged, 64)
	_, err := NewMover(nil).Move(context.Background(), staged, Destination(root, "B", "Album", "A", ".mp3"))
	if !errors.Is(err, services.ErrMove) {
		t.Fatalf("expected move error, got %v", err)
	}
	if !fileExists(staged) {
		t.Fatal("staged file must be untouched on failure")
	}
}

func TestDryRun(t *testing.T) {
	root := t.TempDir()
	report := DryRun(root, "B", "Album", "A", ".mp3")
	if !report.RootExists || !report.RootWritable {
		t.Fatalf("root should exist and be writable: %+v", report)
	}
	if report.NearestExistingAncestor != root || !report.AncestorWritable {
		t.Fatalf("unexpected ancestor: %+v", report)
	}
	if report.WouldCollide || report.FinalPath != report.Destination {
		t.Fatalf("unexpected collision: %+v", report)
	}
	if fileExists(filepath.Join(root, "B")) {
		t.Fatal("dry run must not create directories")
	}

	testsupport.WriteFile(t, report.Destination, 10)
	report = DryRun(root, "B", "Album", "A", ".mp3")
	if !report.WouldCollide {
		t.Fatalf("expected collision: %+v", report)
	}
	if report.FinalPath != filepath.Join(root, "B", "Album", "A (1).mp3") {
		t.Fatalf("unexpected final path %q", report.FinalPath)
	}
	if report.NearestExistingAncestor != filepath.Join(root, "B", "Album") {
		t.Fatalf("unexpected ancestor %q", report.NearestExistingAncestor)
	}
}

func TestDryRunMissingRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "missing", "library")
	report := DryRun(root, "B", "Album", "A", ".mp3")
	if report.RootExists || report.RootWritable {
		t.Fatalf("root should not exist: %+v", report)
	}
	if report.NearestExistingAncestor != base {
		t.Fatalf("ancestor = %q, want %q", report.NearestExistingAncestor, base)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
