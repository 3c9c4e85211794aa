package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tuneshelf/internal/api"
	"tuneshelf/internal/config"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/review"
	"tuneshelf/internal/services"
)

const maxRequestBody = 64 << 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	router chi.Router

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.router = srv.routes()
	return srv
}

func (s *apiServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestContext)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Patch("/", s.handleUpdateItem)
				r.Delete("/", s.handleDeleteItem)
				r.Post("/confirm", s.handleConfirmItem)
				r.Get("/dry-run", s.handleDryRun)
				r.Get("/artwork", s.handleArtwork)
				r.Get("/artist-suggestions", s.handleArtistSuggestions)
			})
		})

		r.Get("/events", s.handleEvents)

		r.Post("/scan", s.handleStartScan)
		r.Get("/scan/status", s.handleScanStatus)

		r.Route("/library", func(r chi.Router) {
			r.Get("/artists", s.handleLibraryArtists)
			r.Get("/artists/match", s.handleArtistMatch)
			r.Get("/stats", s.handleLibraryStats)
			r.Post("/rescan", s.handleLibraryRescan)
			r.Get("/status", s.handleLibraryStatus)
		})
	})
	return r
}

// requestContext copies chi's request id into the context fields the
// logging helpers read.
func (s *apiServer) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) reviewService() *review.Service {
	return s.daemon.Review()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		LLMEnabled:   status.LLMEnabled,
		ItemCounts:   api.StatusCounts(status.ItemCounts),
		Intake:       api.FromScanStatus(status.Intake),
		Library:      api.FromScanStatus(status.Library),
	})
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := queue.ParseStatus(part)
			if !ok {
				s.writeError(w, services.Wrap(services.ErrValidation, "api", "list items",
					fmt.Sprintf("unknown status %q", strings.TrimSpace(part)), nil))
				return
			}
			statuses = append(statuses, status)
		}
	}
	items, err := s.reviewService().List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: api.FromItems(items)})
}

func (s *apiServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item, err := s.reviewService().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	var req api.UpdateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	item, err := s.reviewService().Update(r.Context(), id, review.UpdateInput{
		Title:  req.Title,
		Artist: req.Artist,
		Genre:  req.Genre,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	if err := s.reviewService().Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleConfirmItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	var req api.ConfirmRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	item, err := s.reviewService().Confirm(r.Context(), id, review.ConfirmInput{
		Title:  req.Title,
		Artist: req.Artist,
		Genre:  req.Genre,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleDryRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	report, err := s.reviewService().DryRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromDryRun(report))
}

func (s *apiServer) handleArtwork(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item, err := s.reviewService().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if item.ArtworkPath == "" {
		s.writeError(w, services.Wrap(services.ErrNotFound, "api", "artwork", "item has no artwork", nil))
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, item.ArtworkPath)
}

func (s *apiServer) handleArtistSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item, err := s.reviewService().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	matches, err := s.reviewService().ItemArtistSuggestions(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ArtistMatchResponse{
		Query:   item.CurrentArtist,
		Matches: api.FromMatches(matches),
	})
}

func (s *apiServer) handleStartScan(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.TriggerIntake(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.FromScanStatus(s.daemon.IntakeStatus()))
}

func (s *apiServer) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromScanStatus(s.daemon.IntakeStatus()))
}

func (s *apiServer) handleLibraryArtists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	counts, err := s.daemon.store.ArtistCounts(r.Context(), query.Get("search"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	artists := api.FromArtistCounts(counts)
	if strings.EqualFold(strings.TrimSpace(query.Get("sort")), "tracks") {
		sortByTracks(artists)
	}
	s.writeJSON(w, http.StatusOK, api.ArtistListResponse{Artists: artists})
}

func (s *apiServer) handleArtistMatch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	matches, err := s.reviewService().MatchArtists(r.Context(), q, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ArtistMatchResponse{Query: q, Matches: api.FromMatches(matches)})
}

func (s *apiServer) handleLibraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.store.LibraryStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromLibraryStats(stats))
}

func (s *apiServer) handleLibraryRescan(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.daemon.TriggerLibrary(force); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.FromScanStatus(s.daemon.LibraryStatus()))
}

func (s *apiServer) handleLibraryStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromScanStatus(s.daemon.LibraryStatus()))
}

func (s *apiServer) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "parse id", "invalid item id", nil))
		return 0, false
	}
	return id, true
}

func (s *apiServer) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "decode body", "invalid request body", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.ErrorWithContext(s.logger, "failed to encode response", "api_encode_failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	status, body := api.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(s.logger, "api request failed", "api_request_failed",
			logging.String("kind", body.Kind),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, body)
}

func sortByTracks(artists []api.Artist) {
	sort.SliceStable(artists, func(i, j int) bool {
		return artists[i].TrackCount > artists[j].TrackCount
	})
}
