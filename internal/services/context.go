package services

import "context"

type (
	itemIDKey    struct{}
	requestIDKey struct{}
)

// WithItemID tags ctx with the review item being worked on.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey{}, id)
}

// ItemIDFromContext returns the item id set by WithItemID.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey{}).(int64)
	return id, ok && id > 0
}

// WithRequestID tags ctx with an HTTP request id. Empty ids are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
