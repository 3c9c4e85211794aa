package daemonrun

import (
	"os"
	"path/filepath"
	"testing"

	"tuneshelf/internal/testsupport"
)

func TestPIDFileRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	pid, err := ReadPID(cfg)
	if err != nil || pid != 0 {
		t.Fatalf("expected no pid before write, got %d (%v)", pid, err)
	}
	if err := writePIDFile(PIDPath(cfg)); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err = ReadPID(cfg)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "tuneshelf-1.log")
	second := filepath.Join(dir, "tuneshelf-2.log")
	testsupport.WriteFile(t, first, 1)
	testsupport.WriteFile(t, second, 2)

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "tuneshelf.log"))
	if err != nil {
		t.Fatalf("stat pointer: %v", err)
	}
	if info.Size() != 2 {
		t.Fatalf("pointer should resolve to the latest log, got size %d", info.Size())
	}
}
