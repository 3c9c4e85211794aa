package inference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tuneshelf/internal/logging"
	"tuneshelf/internal/tags"
)

// DefaultThreshold is the confidence at which the chain stops.
const DefaultThreshold = 1.0

// Result is the resolved metadata for one item.
type Result struct {
	Title       string
	Artist      string
	Source      string
	Error       error
	RawTrace    string
	NeedsManual bool
}

// Resolver runs strategies in order until one is confident.
type Resolver struct {
	strategies []Strategy
	threshold  float64
	logger     *slog.Logger
}

// NewResolver builds a resolver over an explicit strategy chain.
func NewResolver(strategies []Strategy, threshold float64, logger *slog.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		strategies: strategies,
		threshold:  threshold,
		logger:     logging.NewComponentLogger(logger, "inference"),
	}
}

// NewDefaultResolver wires the embedded-tags strategy ahead of the service.
func NewDefaultResolver(service TrackInferrer, timeout time.Duration, logger *slog.Logger) *Resolver {
	component := logging.NewComponentLogger(logger, "inference")
	return NewResolver([]Strategy{
		EmbeddedStrategy{},
		ServiceStrategy{Service: service, Timeout: timeout, Logger: component},
	}, DefaultThreshold, logger)
}

// Resolve walks the chain. A field that no strategy supplies is left empty and
// the result is marked for manual review.
func (r *Resolver) Resolve(ctx context.Context, hints Hints, embedded *tags.Metadata) Result {
	in := Input{Hints: hints, Embedded: embedded}
	var (
		best     Candidate
		bestFrom string
		haveBest bool
		result   Result
	)

	for _, strategy := range r.strategies {
		attempt := strategy.Infer(ctx, in)
		if attempt.Raw != "" {
			result.RawTrace = attempt.Raw
		}
		if attempt.Err != nil && !errors.Is(attempt.Err, ErrNoAnswer) {
			result.Error = attempt.Err
		}
		if !attempt.OK {
			continue
		}
		if !haveBest || attempt.Candidate.Confidence > best.Confidence {
			best, bestFrom, haveBest = attempt.Candidate, strategy.Name(), true
		}
		if attempt.Candidate.Confidence >= r.threshold {
			result.Error = nil
			break
		}
	}

	result.Title = best.Title
	result.Artist = best.Artist
	result.Source = bestFrom
	result.NeedsManual = !best.Complete()

	r.logger.Info("inference resolved",
		logging.String(logging.FieldEventType, "inference_resolved"),
		logging.String("source", result.Source),
		logging.Bool("needs_manual", result.NeedsManual),
		logging.Bool("has_trace", result.RawTrace != ""),
	)
	return result
}
