package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tuneshelf/internal/logging"
)

// ErrAlreadyScanning is returned by Start while a pass is running.
var ErrAlreadyScanning = errors.New("scan already in progress")

// Pass is one unit of background work. Enumerate lists the files up front;
// Process handles one of them. Per-file errors never abort the pass.
type Pass interface {
	Name() string
	Enumerate(ctx context.Context) ([]string, error)
	Process(ctx context.Context, path string) error
}

// FileError records a per-file failure.
type FileError struct {
	Path    string    `json:"path"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Status is a point-in-time copy of the worker state.
type Status struct {
	Pass       string      `json:"pass"`
	IsScanning bool        `json:"is_scanning"`
	Total      int         `json:"total"`
	Processed  int         `json:"processed"`
	Errors     []FileError `json:"errors"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	LastError  string      `json:"last_error,omitempty"`
}

// maxRecordedErrors caps the per-pass error list.
const maxRecordedErrors = 200

// Worker owns the scan state for one kind of pass.
type Worker struct {
	mu     sync.Mutex
	state  Status
	done   chan struct{}
	logger *slog.Logger
	onDone func(Status)
}

// NewWorker constructs an idle worker.
func NewWorker(name string, logger *slog.Logger) *Worker {
	return &Worker{
		state:  Status{Pass: name},
		logger: logging.NewComponentLogger(logger, "scanner").With(logging.String("pass", name)),
	}
}

// OnComplete registers a callback invoked with the final status of each pass.
func (w *Worker) OnComplete(fn func(Status)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDone = fn
}

// Start launches pass on its own goroutine. It returns ErrAlreadyScanning
// instead of queueing when a pass is already running.
func (w *Worker) Start(ctx context.Context, pass Pass) error {
	w.mu.Lock()
	if w.state.IsScanning {
		w.mu.Unlock()
		return ErrAlreadyScanning
	}
	w.state = Status{
		Pass:       pass.Name(),
		IsScanning: true,
		StartedAt:  time.Now().UTC(),
	}
	done := make(chan struct{})
	w.done = done
	w.mu.Unlock()

	go func() {
		defer close(done)
		w.run(ctx, pass)
	}()
	return nil
}

// Run executes pass synchronously, with the same exclusivity as Start.
func (w *Worker) Run(ctx context.Context, pass Pass) (Status, error) {
	if err := w.Start(ctx, pass); err != nil {
		return w.Snapshot(), err
	}
	w.Wait()
	return w.Snapshot(), nil
}

// Wait blocks until the current pass, if any, finishes.
func (w *Worker) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Snapshot returns a copy of the current state.
func (w *Worker) Snapshot() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.state
	out.Errors = append([]FileError(nil), w.state.Errors...)
	return out
}

func (w *Worker) run(ctx context.Context, pass Pass) {
	logger := w.logger
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "scan pass panicked", "scan_panic",
				logging.Any("panic", r),
			)
			w.finish(errors.New("scan pass panicked"))
		}
	}()

	files, err := pass.Enumerate(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "scan enumeration failed", "scan_enumerate_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the scanned directory exists and is readable"),
		)
		w.finish(err)
		return
	}
	w.mu.Lock()
	w.state.Total = len(files)
	w.mu.Unlock()
	logger.Info("scan started",
		logging.String(logging.FieldEventType, "scan_started"),
		logging.Int("total", len(files)),
	)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		if err := pass.Process(ctx, path); err != nil {
			logging.WarnWithContext(logger, "scan file failed", "scan_file_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file skipped for this pass"),
			)
			w.recordError(path, err)
		}
		w.mu.Lock()
		w.state.Processed++
		w.mu.Unlock()
	}

	w.finish(ctx.Err())
	snap := w.Snapshot()
	logger.Info("scan completed",
		logging.String(logging.FieldEventType, "scan_completed"),
		logging.Int("total", snap.Total),
		logging.Int("processed", snap.Processed),
		logging.Int("errors", len(snap.Errors)),
		logging.Duration("elapsed", time.Since(started)),
	)
}

func (w *Worker) recordError(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.state.Errors) >= maxRecordedErrors {
		return
	}
	w.state.Errors = append(w.state.Errors, FileError{Path: path, Message: err.Error(), At: time.Now().UTC()})
}

func (w *Worker) finish(err error) {
	w.mu.Lock()
	w.state.IsScanning = false
	w.state.FinishedAt = time.Now().UTC()
	if err != nil {
		w.state.LastError = err.Error()
	}
	final := w.state
	final.Errors = append([]FileError(nil), w.state.Errors...)
	callback := w.onDone
	w.mu.Unlock()
	if callback != nil {
		callback(final)
	}
}
