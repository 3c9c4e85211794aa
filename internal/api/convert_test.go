package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"tuneshelf/internal/queue"
	"tuneshelf/internal/scanner"
	"tuneshelf/internal/services"
)

func TestFromItem(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	item := &queue.Item{
		ID:             7,
		Status:         queue.StatusPending,
		VideoTitle:     "Video",
		InferredTitle:  "Song",
		InferredArtist: "Singer",
		CurrentTitle:   "Song (edit)",
		CurrentArtist:  "Singer",
		ArtworkPath:    "/art/7.jpg",
		CreatedAt:      created,
	}
	dto := FromItem(item)
	if dto.ID != 7 || dto.Status != "pending" || dto.Title != "Song (edit)" || dto.Label != "Song (edit)" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if !dto.HasArtwork {
		t.Fatal("expected hasArtwork")
	}
	if dto.CreatedAt != "2026-03-01T10:00:00.000Z" {
		t.Fatalf("unexpected createdAt %q", dto.CreatedAt)
	}
	if dto.UpdatedAt != "" {
		t.Fatalf("expected zero time to be omitted, got %q", dto.UpdatedAt)
	}
}

func TestFromItemsNeverNil(t *testing.T) {
	if got := FromItems(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestStatusCountsZeroFilled(t *testing.T) {
	counts := StatusCounts(map[queue.Status]int{queue.StatusDone: 3})
	if len(counts) != len(queue.AllStatuses()) {
		t.Fatalf("expected every status, got %v", counts)
	}
	if counts["done"] != 3 || counts["pending"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestFromScanStatus(t *testing.T) {
	dto := FromScanStatus(scanner.Status{Pass: "intake", Total: 2, Processed: 1,
		Errors: []scanner.FileError{{Path: "/a", Message: "boom"}}})
	if dto.Pass != "intake" || len(dto.Errors) != 1 || dto.Errors[0].Path != "/a" || dto.StartedAt != "" {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.Wrap(services.ErrValidation, "review", "confirm", "title is required", nil), http.StatusBadRequest},
		{"not found", fmt.Errorf("get item 9: %w", queue.ErrNotFound), http.StatusNotFound},
		{"move", services.Wrap(services.ErrMove, "organizer", "rename", "failed", errors.New("EACCES")), http.StatusInternalServerError},
		{"write", services.Wrap(services.ErrWrite, "commit", "verify", "mismatch", nil), http.StatusInternalServerError},
		{"busy", scanner.ErrAlreadyScanning, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ErrorStatus(tt.err)
			if code != tt.want {
				t.Fatalf("got %d, want %d", code, tt.want)
			}
			if body.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
	_, body := ErrorStatus(services.Wrap(services.ErrValidation, "review", "confirm", "title is required", nil))
	if body.Kind != "validation" {
		t.Fatalf("unexpected kind %q", body.Kind)
	}
}
