package intake_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tuneshelf/internal/intake"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/services"
	"tuneshelf/internal/testsupport"
)

type stubSubmitter struct {
	seen  []string
	known map[string]bool
	fail  map[string]error
}

func (s *stubSubmitter) SubmitForReview(_ context.Context, path string) (*queue.Item, bool, error) {
	s.seen = append(s.seen, path)
	if err := s.fail[path]; err != nil {
		return nil, false, err
	}
	return &queue.Item{ID: int64(len(s.seen)), Status: queue.StatusPending}, !s.known[path], nil
}

func TestPassSubmitsAudioFilesOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	song := filepath.Join(cfg.Paths.IntakeDir, "Song###Channel.mp3")
	nested := filepath.Join(cfg.Paths.IntakeDir, "sub", "Other###Channel.FLAC")
	known := filepath.Join(cfg.Paths.IntakeDir, "Known###Channel.m4a")
	testsupport.WriteFile(t, song, 10)
	testsupport.WriteFile(t, nested, 10)
	testsupport.WriteFile(t, known, 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.IntakeDir, "cover.jpg"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.IntakeDir, ".partial.mp3"), 10)

	stub := &stubSubmitter{known: map[string]bool{known: true}}
	pass := intake.NewPass(cfg, stub, logging.NewNop())
	status, err := scanner.NewWorker(intake.PassName, logging.NewNop()).Run(context.Background(), pass)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Total != 3 || len(status.Errors) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(stub.seen) != 3 {
		t.Fatalf("expected 3 submissions, got %v", stub.seen)
	}
	if pass.Created() != 2 {
		t.Fatalf("expected 2 created, got %d", pass.Created())
	}
}

func TestPassToleratesVanishedAndRecordsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gone := filepath.Join(cfg.Paths.IntakeDir, "Gone###Channel.mp3")
	broken := filepath.Join(cfg.Paths.IntakeDir, "Broken###Channel.mp3")
	testsupport.WriteFile(t, gone, 10)
	testsupport.WriteFile(t, broken, 10)

	stub := &stubSubmitter{fail: map[string]error{
		gone:   services.Wrap(services.ErrNotFound, "review", "fingerprint", "intake file vanished", nil),
		broken: errors.New("disk on fire"),
	}}
	status, err := scanner.NewWorker(intake.PassName, logging.NewNop()).
		Run(context.Background(), intake.NewPass(cfg, stub, logging.NewNop()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(status.Errors) != 1 || status.Errors[0].Path != broken {
		t.Fatalf("expected only the broken file recorded, got %+v", status.Errors)
	}
}
