package services_test

import (
	"errors"
	"strings"
	"testing"

	"tuneshelf/internal/queue"
	"tuneshelf/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrWrite, "commit", "verify", "title mismatch", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"commit", "verify", "title mismatch", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestMessageOmitsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "genre is required", nil)
	if got := services.Message(err); got != "genre is required" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := services.Message(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	inferenceErr := services.Wrap(services.ErrInference, "inference", "call", "service unavailable", nil)
	if status := services.FailureStatus(inferenceErr); status != queue.StatusNeedsManual {
		t.Fatalf("expected needs_manual for inference error, got %s", status)
	}

	moveErr := services.Wrap(services.ErrMove, "organizer", "rename", "rename failed", errors.New("io"))
	if status := services.FailureStatus(moveErr); status != queue.StatusError {
		t.Fatalf("expected error for move error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != queue.StatusError {
		t.Fatalf("expected error for nil error, got %s", status)
	}
}

func TestKindName(t *testing.T) {
	cases := map[string]error{
		"validation": services.Wrap(services.ErrValidation, "", "", "x", nil),
		"move":       services.Wrap(services.ErrMove, "", "", "x", nil),
		"not_found":  queue.ErrNotFound,
		"write":      errors.New("other"),
	}
	for want, err := range cases {
		if got := services.KindName(err); got != want {
			t.Fatalf("KindName(%v) = %q, want %q", err, got, want)
		}
	}
}
