package review

import (
	"context"
	"log/slog"
	"time"

	"tuneshelf/internal/commit"
	"tuneshelf/internal/config"
	"tuneshelf/internal/events"
	"tuneshelf/internal/inference"
	"tuneshelf/internal/library"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/matching"
	"tuneshelf/internal/notifications"
	"tuneshelf/internal/organizer"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/services/llm"
	"tuneshelf/internal/staging"
)

// Service coordinates staging, inference, commit and move for review items.
type Service struct {
	cfg        *config.Config
	store      *queue.Store
	stager     *staging.Stager
	resolver   *inference.Resolver
	committer  *commit.Engine
	mover      *organizer.Mover
	indexer    *library.Indexer
	thresholds matching.Thresholds
	notifier   notifications.Service
	events     events.Publisher
	locks      *keyedMutex
	logger     *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithResolver replaces the default embedded-then-LLM inference chain.
func WithResolver(resolver *inference.Resolver) Option {
	return func(s *Service) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithNotifier overrides the notifier built from configuration.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithEvents publishes item transitions to pub.
func WithEvents(pub events.Publisher) Option {
	return func(s *Service) {
		s.events = pub
	}
}

// NewService wires the review pipeline from configuration.
func NewService(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Service {
	component := logging.NewComponentLogger(logger, "review")
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second

	s := &Service{
		cfg:       cfg,
		store:     store,
		stager:    staging.NewStager(cfg.Paths.StagingDir, logger),
		resolver:  inference.NewDefaultResolver(client, timeout, logger),
		committer: commit.NewEngine(logger),
		mover:     organizer.NewMover(logger),
		indexer:   library.NewIndexer(cfg, store, logger),
		thresholds: matching.Thresholds{
			SuggestMin:    cfg.Matching.SuggestThreshold,
			Containment:   cfg.Matching.ContainmentFloor,
			UnspacedEqual: cfg.Matching.UnspacedFloor,
		},
		notifier: notifications.NewService(cfg),
		locks:    newKeyedMutex(),
		logger:   component,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (*queue.Item, error) {
	return s.store.GetByID(ctx, id)
}

// List returns items filtered by status; no statuses means all.
func (s *Service) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error) {
	return s.store.List(ctx, statuses...)
}

// Stats returns item counts per status.
func (s *Service) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return s.store.Stats(ctx)
}

// CleanOrphanedStaging removes staging directories no item references.
func (s *Service) CleanOrphanedStaging(ctx context.Context) (staging.CleanResult, error) {
	paths, err := s.store.StagedPaths(ctx)
	if err != nil {
		return staging.CleanResult{}, err
	}
	return staging.CleanOrphaned(ctx, s.cfg.Paths.StagingDir, paths, s.logger), nil
}

func (s *Service) publish(evtType events.Type, item *queue.Item) {
	if s.events == nil || item == nil {
		return
	}
	s.events.Publish(events.Event{
		Type:   evtType,
		ItemID: item.ID,
		Data: map[string]any{
			"status": string(item.Status),
			"title":  item.DisplayTitle(),
			"artist": item.CurrentArtist,
			"error":  item.ErrorMessage,
		},
	})
}

func (s *Service) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(s.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification delivered"),
		)
	}
}
