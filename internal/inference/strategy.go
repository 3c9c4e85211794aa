package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tuneshelf/internal/logging"
	"tuneshelf/internal/services"
	"tuneshelf/internal/tags"
)

// ErrNoAnswer is reported by a strategy that had nothing to offer.
var ErrNoAnswer = errors.New("no answer")

// partialEmbeddedConfidence ranks a lone embedded field below any service answer.
const partialEmbeddedConfidence = 0.25

// Candidate is a proposed title/artist pair with a confidence in [0,1].
type Candidate struct {
	Title      string
	Artist     string
	Confidence float64
}

// Complete reports whether both fields are present.
func (c Candidate) Complete() bool {
	return c.Title != "" && c.Artist != ""
}

// Input is what every strategy sees.
type Input struct {
	Hints    Hints
	Embedded *tags.Metadata
}

// Attempt is the result of one strategy. OK is false when the strategy had no
// answer; Raw carries any trace worth persisting.
type Attempt struct {
	Candidate Candidate
	OK        bool
	Raw       string
	Err       error
}

// Strategy is one step of the inference chain.
type Strategy interface {
	Name() string
	Infer(ctx context.Context, in Input) Attempt
}

// EmbeddedStrategy trusts tags already present in the file when both title and
// artist are set. A single embedded field is offered at low confidence so it
// survives a failed service call.
type EmbeddedStrategy struct{}

func (EmbeddedStrategy) Name() string { return "embedded" }

func (EmbeddedStrategy) Infer(_ context.Context, in Input) Attempt {
	if in.Embedded == nil {
		return Attempt{Err: ErrNoAnswer}
	}
	title := strings.TrimSpace(in.Embedded.Title)
	artist := strings.TrimSpace(in.Embedded.Artist)
	candidate := Candidate{Title: title, Artist: artist, Confidence: 1}
	switch {
	case candidate.Complete():
		return Attempt{Candidate: candidate, OK: true}
	case title != "" || artist != "":
		candidate.Confidence = partialEmbeddedConfidence
		return Attempt{Candidate: candidate, OK: true, Err: ErrNoAnswer}
	}
	return Attempt{Err: ErrNoAnswer}
}

// TrackInferrer is the external text-inference service.
type TrackInferrer interface {
	InferTrack(ctx context.Context, videoTitle, channel string) (string, error)
}

// ServiceStrategy asks the external service and backfills a missing field from
// the embedded tags.
type ServiceStrategy struct {
	Service TrackInferrer
	Timeout time.Duration
	Logger  *slog.Logger
}

func (s ServiceStrategy) Name() string { return "service" }

func (s ServiceStrategy) Infer(ctx context.Context, in Input) Attempt {
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if s.Service == nil {
		return Attempt{Err: services.Wrap(services.ErrInference, "inference", "service",
			"inference service not configured", nil)}
	}
	if in.Hints.Empty() {
		return Attempt{Err: ErrNoAnswer}
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := s.Service.InferTrack(callCtx, in.Hints.VideoTitle, in.Hints.Channel)
	if err != nil {
		message := "inference service unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "inference service timed out"
		}
		logging.WarnWithContext(logger, "inference request failed", "inference_failed",
			logging.String("video_title", in.Hints.VideoTitle),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm api key, base_url and connectivity"),
			logging.String(logging.FieldImpact, "item routed to manual review"),
		)
		return Attempt{Raw: raw, Err: services.Wrap(services.ErrInference, "inference", "service", message, err)}
	}

	parsed := ParseResponse(raw)
	candidate := Candidate{Title: parsed.Title, Artist: parsed.Artist}
	if in.Embedded != nil {
		if candidate.Title == "" {
			candidate.Title = strings.TrimSpace(in.Embedded.Title)
		}
		if candidate.Artist == "" {
			candidate.Artist = strings.TrimSpace(in.Embedded.Artist)
		}
	}
	candidate.Confidence = 0.5
	if candidate.Complete() {
		candidate.Confidence = 1
	}
	attempt := Attempt{Candidate: candidate, OK: candidate.Title != "" || candidate.Artist != "", Raw: raw}
	if !candidate.Complete() {
		attempt.Err = parsed.Err
	}
	logger.Debug("inference response parsed",
		logging.String(logging.FieldEventType, "inference_parsed"),
		logging.String("title", candidate.Title),
		logging.String("artist", candidate.Artist),
		logging.Float64("confidence", candidate.Confidence),
		logging.Duration("elapsed", time.Since(started)),
	)
	return attempt
}
