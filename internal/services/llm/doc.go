// Package llm provides an OpenAI-compatible chat completion client
// (OpenRouter by default) used to infer track titles and artists from the
// hints carried in intake file names.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.InferTrack: send the video title and channel hints, receive raw text.
// Client.Complete / Client.CompleteJSON: free-form and JSON-mode completions.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx responses, empty completions and
// network timeouts with exponential backoff (base 1s, max 8s, 3 attempts by
// default). Context cancellation aborts retries immediately.
//
// # Fallback
//
// An unconfigured client returns ErrNotConfigured. Callers treat any error as
// "no answer" and route the item to manual review.
package llm
