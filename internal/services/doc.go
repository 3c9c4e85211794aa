// Package services defines shared utilities consumed by the ingest pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp item IDs and correlation identifiers for
//     logging.
//   - The error taxonomy (parse, inference, write, move, validation) plus the
//     Wrap helper that translates failures into consistent item statuses.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services
