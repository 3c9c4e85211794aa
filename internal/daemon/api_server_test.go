package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"tuneshelf/internal/api"
	"tuneshelf/internal/events"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/testsupport"
)

func newTestAPI(t *testing.T) (*apiServer, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.api, store
}

func serve(t *testing.T, srv *apiServer, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestAPIServerListAndGetItems(t *testing.T) {
	srv, store := newTestAPI(t)
	item := testsupport.NewItem(t, store, "fp-1", "/staging/fp-1/song.mp3")

	w := serve(t, srv, http.MethodGet, "/api/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	list := decode[api.ItemListResponse](t, w)
	if len(list.Items) != 1 || list.Items[0].Title != "Title" {
		t.Fatalf("unexpected items %+v", list.Items)
	}

	w = serve(t, srv, http.MethodGet, "/api/items?status=done", "")
	if list := decode[api.ItemListResponse](t, w); len(list.Items) != 0 {
		t.Fatalf("expected no done items, got %+v", list.Items)
	}

	w = serve(t, srv, http.MethodGet, "/api/items/"+strconv.FormatInt(item.ID, 10), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if got := decode[api.ItemResponse](t, w); got.Item.ID != item.ID || got.Item.Status != "pending" {
		t.Fatalf("unexpected item %+v", got.Item)
	}
}

func TestAPIServerErrorMapping(t *testing.T) {
	srv, _ := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{name: "missing item", method: http.MethodGet, target: "/api/items/999", status: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, target: "/api/items/abc", status: http.StatusBadRequest},
		{name: "unknown status", method: http.MethodGet, target: "/api/items?status=bogus", status: http.StatusBadRequest},
		{name: "bad body", method: http.MethodPost, target: "/api/items/1/confirm", body: `{"titel":"x"}`, status: http.StatusBadRequest},
		{name: "empty match query", method: http.MethodGet, target: "/api/library/artists/match", status: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, srv, tt.method, tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestAPIServerUpdateItem(t *testing.T) {
	srv, store := newTestAPI(t)
	item := testsupport.NewItem(t, store, "fp-1", "/staging/fp-1/song.mp3")
	target := "/api/items/" + strconv.FormatInt(item.ID, 10)

	w := serve(t, srv, http.MethodPatch, target, `{"genre":"Nasheed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d (%s)", w.Code, w.Body.String())
	}
	got := decode[api.ItemResponse](t, w)
	if got.Item.Genre != "Nasheed" || got.Item.Title != "Title" {
		t.Fatalf("unexpected item after patch %+v", got.Item)
	}

	if err := store.MarkDone(context.Background(), item.ID, "/library/song.mp3"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	w = serve(t, srv, http.MethodPatch, target, `{"title":"Other"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected done item edit to be rejected, got %d", w.Code)
	}
}

func TestAPIServerStatusAndLibrary(t *testing.T) {
	srv, store := newTestAPI(t)
	testsupport.NewItem(t, store, "fp-1", "/staging/fp-1/song.mp3")
	if err := store.UpsertTrack(context.Background(), &queue.LibraryTrack{
		Path:     "/library/Artist/Album/Song.mp3",
		Title:    "Song",
		Artist:   "Artist",
		Album:    "Album",
		FileSize: 1024,
	}); err != nil {
		t.Fatalf("UpsertTrack: %v", err)
	}

	w := serve(t, srv, http.MethodGet, "/api/status", "")
	status := decode[api.DaemonStatus](t, w)
	if status.Running || status.ItemCounts["pending"] != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	w = serve(t, srv, http.MethodGet, "/api/library/artists", "")
	artists := decode[api.ArtistListResponse](t, w)
	if len(artists.Artists) != 1 || artists.Artists[0].Name != "Artist" || artists.Artists[0].TrackCount != 1 {
		t.Fatalf("unexpected artists %+v", artists.Artists)
	}

	w = serve(t, srv, http.MethodGet, "/api/library/stats", "")
	if stats := decode[api.LibraryStats](t, w); stats.Tracks != 1 || stats.TotalBytes != 1024 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	w = serve(t, srv, http.MethodGet, "/api/library/artists/match?q=artst", "")
	matches := decode[api.ArtistMatchResponse](t, w)
	if len(matches.Matches) != 1 || matches.Matches[0].Name != "Artist" {
		t.Fatalf("unexpected matches %+v", matches)
	}
}

func TestAPIServerStreamsEvents(t *testing.T) {
	srv, _ := newTestAPI(t)
	server := httptest.NewServer(srv.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events?since=0", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	srv.daemon.Events().Publish(events.Event{Type: events.ItemUpdated, ItemID: 7})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if lines[0] != "id: 1" || lines[1] != "event: "+string(events.ItemUpdated) {
		t.Fatalf("unexpected event frame %q", lines)
	}
	if !strings.Contains(lines[2], `"item_id":7`) {
		t.Fatalf("event data missing item id: %q", lines[2])
	}
}
