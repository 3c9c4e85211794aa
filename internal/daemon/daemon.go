package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tuneshelf/internal/config"
	"tuneshelf/internal/events"
	"tuneshelf/internal/intake"
	"tuneshelf/internal/library"
	"tuneshelf/internal/logging"
	"tuneshelf/internal/notifications"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/review"
	"tuneshelf/internal/scanner"
)

// Daemon coordinates the background scan loops and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	review   *review.Service
	indexer  *library.Indexer
	hub      *events.Hub
	notifier notifications.Service

	intakeWorker  *scanner.Worker
	libraryWorker *scanner.Worker

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	LLMEnabled   bool
	ItemCounts   map[queue.Status]int
	Intake       scanner.Status
	Library      scanner.Status
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	reviewOpts []review.Option
	notifier   notifications.Service
}

// WithReviewOptions forwards options to the review service.
func WithReviewOptions(opts ...review.Option) Option {
	return func(o *options) { o.reviewOpts = append(o.reviewOpts, opts...) }
}

// WithNotifier overrides the notifier built from configuration.
func WithNotifier(n notifications.Service) Option {
	return func(o *options) { o.notifier = n }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	hub := events.NewHub(512)
	reviewOpts := append([]review.Option{
		review.WithEvents(hub),
		review.WithNotifier(notifier),
	}, o.reviewOpts...)

	lockPath := filepath.Join(cfg.Paths.DataDir, "tuneshelf.lock")
	d := &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		store:         store,
		review:        review.NewService(cfg, store, logger, reviewOpts...),
		indexer:       library.NewIndexer(cfg, store, logger),
		hub:           hub,
		notifier:      notifier,
		intakeWorker:  scanner.NewWorker(intake.PassName, logger),
		libraryWorker: scanner.NewWorker(library.PassName, logger),
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
	}
	d.intakeWorker.OnComplete(d.publishScan)
	d.libraryWorker.OnComplete(d.onLibraryComplete)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, reclaims orphaned staging directories,
// starts the API server and launches the scan loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tuneshelf daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start api: %w", err)
	}

	d.cleanStaging(d.ctx)

	d.running.Store(true)
	d.wg.Add(2)
	go d.intakeLoop(d.ctx)
	go d.libraryLoop(d.ctx)

	d.logger.Info("tuneshelf daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("intake_dir", d.cfg.Paths.IntakeDir),
		logging.String("library_dir", d.cfg.Paths.LibraryDir),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.intakeWorker.Wait()
	d.libraryWorker.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tuneshelf daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Review exposes the review service.
func (d *Daemon) Review() *review.Service { return d.review }

// Events exposes the transition hub.
func (d *Daemon) Events() *events.Hub { return d.hub }

// APIAddress returns the bound API address, or "" when the API is disabled
// or not yet listening.
func (d *Daemon) APIAddress() string { return d.api.address() }

// TriggerIntake starts an intake pass unless one is already running.
func (d *Daemon) TriggerIntake() error {
	return d.intakeWorker.Start(d.runContext(), intake.NewPass(d.cfg, d.review, d.logger))
}

// TriggerLibrary starts a library index pass unless one is already running.
func (d *Daemon) TriggerLibrary(force bool) error {
	return d.libraryWorker.Start(d.runContext(), d.indexer.Pass(force))
}

// IntakeStatus returns the intake worker snapshot.
func (d *Daemon) IntakeStatus() scanner.Status { return d.intakeWorker.Snapshot() }

// LibraryStatus returns the library worker snapshot.
func (d *Daemon) LibraryStatus() scanner.Status { return d.libraryWorker.Snapshot() }

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.store.Stats(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "item stats unavailable", "status_stats_failed", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LLMEnabled:   strings.TrimSpace(d.cfg.LLM.APIKey) != "",
		ItemCounts:   counts,
		Intake:       d.intakeWorker.Snapshot(),
		Library:      d.libraryWorker.Snapshot(),
	}
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return errors.New("ntfy topic not configured")
	}
	return d.notifier.Publish(ctx, notifications.EventTest, nil)
}

func (d *Daemon) runContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

func (d *Daemon) cleanStaging(ctx context.Context) {
	result, err := d.review.CleanOrphanedStaging(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "staging cleanup skipped", "staging_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "orphaned staging directories remain until next start"),
		)
		return
	}
	if len(result.Removed) > 0 || len(result.Failed) > 0 {
		d.logger.Info("staging cleanup finished",
			logging.String(logging.FieldEventType, "staging_cleanup_finished"),
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Failed)),
		)
	}
}

func (d *Daemon) intakeLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Workflow.ScanIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	d.startIntake()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.startIntake()
		}
	}
}

func (d *Daemon) startIntake() {
	if err := d.TriggerIntake(); err != nil && !errors.Is(err, scanner.ErrAlreadyScanning) {
		logging.WarnWithContext(d.logger, "intake pass not started", "intake_start_failed", logging.Error(err))
	}
}

// libraryLoop indexes the library once at startup and then, when an interval
// is configured, on every tick.
func (d *Daemon) libraryLoop(ctx context.Context) {
	defer d.wg.Done()
	if err := d.TriggerLibrary(false); err != nil && !errors.Is(err, scanner.ErrAlreadyScanning) {
		logging.WarnWithContext(d.logger, "library pass not started", "library_start_failed", logging.Error(err))
	}
	interval := time.Duration(d.cfg.Workflow.LibraryRescanIntervalSeconds) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.TriggerLibrary(false); err != nil && !errors.Is(err, scanner.ErrAlreadyScanning) {
				logging.WarnWithContext(d.logger, "library pass not started", "library_start_failed", logging.Error(err))
			}
		}
	}
}

func (d *Daemon) publishScan(status scanner.Status) {
	d.hub.Publish(events.Event{
		Type: events.ScanCompleted,
		Data: map[string]any{
			"pass":      status.Pass,
			"total":     status.Total,
			"processed": status.Processed,
			"errors":    len(status.Errors),
		},
	})
}

func (d *Daemon) onLibraryComplete(status scanner.Status) {
	d.publishScan(status)
	if err := d.notifier.Publish(context.Background(), notifications.EventLibraryScanned, notifications.Payload{
		"processed": status.Processed,
		"failed":    len(status.Errors),
	}); err != nil {
		logging.WarnWithContext(d.logger, "library scan notification failed", "notification_failed", logging.Error(err))
	}
}
