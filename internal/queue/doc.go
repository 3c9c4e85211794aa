// Package queue persists ingest items and indexed library tracks in SQLite and
// exposes helpers for driving the item lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the conditional status updates that back the review state
// machine (pending, error, needs_manual, done). Library tracks are written by
// the indexer and read by the artist matcher.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema. When you add new statuses or columns, update
// schema.sql and bump schemaVersion.
package queue
