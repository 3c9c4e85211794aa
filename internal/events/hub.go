// Package events fans out item and scan transitions to live subscribers
// (the SSE endpoint) through a bounded in-memory buffer.
package events

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Type names a transition.
type Type string

const (
	ItemUpdated   Type = "item_updated"
	ItemError     Type = "item_error"
	ItemConfirmed Type = "item_confirmed"
	ItemDeleted   Type = "item_deleted"
	ScanCompleted Type = "scan_completed"
)

// Event is one published transition.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"ts"`
	ItemID    int64     `json:"item_id,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Publisher accepts events.
type Publisher interface {
	Publish(evt Event)
}

// Hub stores recent events and wakes waiters when new ones arrive.
type Hub struct {
	mu       sync.Mutex
	capacity int
	buffer   []Event
	nextSeq  uint64
	// changed is closed and replaced on every Publish.
	changed chan struct{}
}

// NewHub constructs a hub retaining at most capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 256
	}
	return &Hub{capacity: capacity, changed: make(chan struct{})}
}

// Publish assigns the next sequence number and appends evt.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if overflow := len(h.buffer) + 1 - h.capacity; overflow > 0 {
		h.buffer = slices.Delete(h.buffer, 0, overflow)
	}
	h.buffer = append(h.buffer, evt)

	close(h.changed)
	h.changed = make(chan struct{})
}

// Fetch returns buffered events with sequence greater than since, at most
// limit of them, plus the cursor to pass on the next call. When wait is true it
// blocks until an event arrives or ctx ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	for {
		h.mu.Lock()
		events, next := h.after(since, limit)
		changed := h.changed
		h.mu.Unlock()

		if len(events) > 0 || !wait {
			return events, next, nil
		}
		select {
		case <-ctx.Done():
			return nil, next, ctx.Err()
		case <-changed:
		}
	}
}

// Cursor returns the latest assigned sequence number.
func (h *Hub) Cursor() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq
}

// after must be called with mu held.
func (h *Hub) after(since uint64, limit int) ([]Event, uint64) {
	start, _ := slices.BinarySearchFunc(h.buffer, since+1, func(e Event, seq uint64) int {
		return cmp.Compare(e.Sequence, seq)
	})
	if start == len(h.buffer) {
		return nil, max(since, h.nextSeq)
	}
	end := min(start+limit, len(h.buffer))
	out := slices.Clone(h.buffer[start:end])
	return out, out[len(out)-1].Sequence
}
