package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tuneshelf/internal/api"
	"tuneshelf/internal/logging"
)

const sseKeepAlive = 15 * time.Second

// handleEvents streams hub events as server-sent events. A client resumes
// with Last-Event-ID or ?since=; a fresh client only sees new events.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "streaming unsupported"})
		return
	}
	hub := s.daemon.Events()
	cursor := hub.Cursor()
	for _, raw := range []string{r.Header.Get("Last-Event-ID"), r.URL.Query().Get("since")} {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cursor = parsed
			break
		}
	}

	// The server-wide write timeout does not apply to a long-lived stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, sseKeepAlive)
		batch, next, err := hub.Fetch(fetchCtx, cursor, 64, true)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			if _, werr := fmt.Fprint(w, ": keep-alive\n\n"); werr != nil {
				return
			}
			flusher.Flush()
			continue
		}
		for _, evt := range batch {
			data, merr := json.Marshal(evt)
			if merr != nil {
				logging.WarnWithContext(s.logger, "event encode failed", "sse_encode_failed", logging.Error(merr))
				continue
			}
			if _, werr := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Sequence, evt.Type, data); werr != nil {
				return
			}
		}
		flusher.Flush()
		cursor = next
	}
}
