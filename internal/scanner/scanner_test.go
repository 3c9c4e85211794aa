package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tuneshelf/internal/testsupport"
)

type fakePass struct {
	files   []string
	fail    map[string]bool
	release chan struct{}
	mu      sync.Mutex
	seen    []string
}

func (p *fakePass) Name() string { return "fake" }

func (p *fakePass) Enumerate(context.Context) ([]string, error) {
	return p.files, nil
}

func (p *fakePass) Process(_ context.Context, path string) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	p.seen = append(p.seen, path)
	p.mu.Unlock()
	if p.fail[path] {
		return errors.New("boom")
	}
	return nil
}

func TestWorkerRunRecordsProgressAndErrors(t *testing.T) {
	worker := NewWorker("fake", nil)
	var completed Status
	worker.OnComplete(func(s Status) { completed = s })

	pass := &fakePass{files: []string{"a", "b", "c"}, fail: map[string]bool{"b": true}}
	status, err := worker.Run(context.Background(), pass)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.IsScanning || status.Total != 3 || status.Processed != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Errors) != 1 || status.Errors[0].Path != "b" {
		t.Fatalf("unexpected errors %+v", status.Errors)
	}
	if status.StartedAt.IsZero() || status.FinishedAt.Before(status.StartedAt) {
		t.Fatalf("unexpected timestamps %+v", status)
	}
	if completed.Processed != 3 {
		t.Fatalf("completion callback saw %+v", completed)
	}
}

func TestWorkerRejectsConcurrentStart(t *testing.T) {
	worker := NewWorker("fake", nil)
	release := make(chan struct{})
	pass := &fakePass{files: []string{"a"}, release: release}

	if err := worker.Start(context.Background(), pass); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if !worker.Snapshot().IsScanning {
		t.Fatal("expected scanning state")
	}
	if err := worker.Start(context.Background(), pass); !errors.Is(err, ErrAlreadyScanning) {
		t.Fatalf("expected ErrAlreadyScanning, got %v", err)
	}
	close(release)
	worker.Wait()
	if worker.Snapshot().IsScanning {
		t.Fatal("worker should be idle after Wait")
	}
	if err := worker.Start(context.Background(), &fakePass{}); err != nil {
		t.Fatalf("restart after completion: %v", err)
	}
	worker.Wait()
}

func TestWorkerSnapshotIsCopy(t *testing.T) {
	worker := NewWorker("fake", nil)
	_, _ = worker.Run(context.Background(), &fakePass{files: []string{"x"}, fail: map[string]bool{"x": true}})
	snap := worker.Snapshot()
	snap.Errors[0].Path = "mutated"
	if worker.Snapshot().Errors[0].Path != "x" {
		t.Fatal("snapshot shares error slice with worker")
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	worker := NewWorker("fake", nil)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	pass := &fakePass{files: []string{"a", "b", "c"}, release: release}
	if err := worker.Start(ctx, pass); err != nil {
		t.Fatal(err)
	}
	cancel()
	close(release)
	done := make(chan struct{})
	go func() { worker.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if snap := worker.Snapshot(); snap.Processed > 1 || snap.LastError == "" {
		t.Fatalf("expected cancelled pass, got %+v", snap)
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.mp3"), 1)
	testsupport.WriteFile(t, filepath.Join(root, "nested", "b.FLAC"), 1)
	testsupport.WriteFile(t, filepath.Join(root, "nested", "cover.jpg"), 1)
	testsupport.WriteFile(t, filepath.Join(root, ".hidden", "c.mp3"), 1)
	testsupport.WriteFile(t, filepath.Join(root, ".d.mp3"), 1)

	files, err := ListFiles(context.Background(), root, func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		return ext == ".mp3" || ext == ".flac"
	})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{filepath.Join(root, "a.mp3"), filepath.Join(root, "nested", "b.FLAC")}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("ListFiles = %v, want %v", files, want)
	}

	if _, err := ListFiles(context.Background(), filepath.Join(root, "missing"), nil); err == nil {
		t.Fatal("expected error for missing root")
	}
}
