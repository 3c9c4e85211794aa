// Package api defines wire-format types and converters for the HTTP API. It
// translates internal queue and library models into transport-friendly DTOs
// that the review UI and the CLI can render without coupling to internal
// types.
//
// # Key Types
//
// Item: transport representation of a review item with its hints, inferred
// and current metadata, status, and library destination.
//
// ScanStatus: snapshot of an intake or library pass.
//
// DaemonStatus: aggregated runtime information including item counts and
// both scan snapshots.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Statuses are exposed
// as lowercase strings. Timestamps use RFC3339 with milliseconds. Failures are
// encoded as {"error": "..."} with the HTTP status derived from the error
// taxonomy.
package api
