package logging

import (
	"context"
	"log/slog"

	"tuneshelf/internal/services"
)

// Standard attribute keys.
const (
	FieldComponent = "component"
	FieldItemID    = "item_id"
	FieldRequestID = "request_id"
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact says what the user loses because of a warning.
	FieldImpact = "impact"
	FieldPath   = "path"
)

// WithContext adds the item id and request id carried by ctx, if any.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.ItemIDFromContext(ctx); ok {
		args = append(args, slog.Int64(FieldItemID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRequestID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
