package daemon_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tuneshelf/internal/daemon"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != filepath.Join(cfg.Paths.DataDir, "tuneshelf.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
	if status.LLMEnabled {
		t.Fatal("llm should be disabled without an api key")
	}
	if d.APIAddress() == "" {
		t.Fatal("expected api server to be listening")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if d.APIAddress() != "" {
		t.Fatal("expected api server to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
	first.Stop()

	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	second.Stop()
}

func TestDaemonIntakeCreatesItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.WriteMP3(t, filepath.Join(cfg.Paths.IntakeDir, "Song###Channel.mp3"), 4)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.IntakeDir, "notes.txt"), 10)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.TriggerIntake(); err != nil {
		t.Fatalf("TriggerIntake: %v", err)
	}
	status := waitForPass(t, d.IntakeStatus)
	if status.Total != 1 || status.Processed != 1 || len(status.Errors) != 0 {
		t.Fatalf("unexpected pass status %+v", status)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Status != queue.StatusNeedsManual {
		t.Fatalf("expected needs_manual without an llm key, got %s", items[0].Status)
	}
	if items[0].VideoTitle != "Song" || items[0].Channel != "Channel" {
		t.Fatalf("unexpected hints %q / %q", items[0].VideoTitle, items[0].Channel)
	}
}

func waitForPass(t *testing.T, snapshot func() scanner.Status) scanner.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status := snapshot()
		if !status.IsScanning && !status.FinishedAt.IsZero() {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan pass did not finish")
	return scanner.Status{}
}
