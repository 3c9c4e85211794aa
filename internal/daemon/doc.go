// Package daemon coordinates the long-running tuneshelf process.
//
// It wires configuration, the item store, the review service, and the intake
// and library scanner workers into a single lifecycle with flock-based locking
// to prevent multiple instances. On start it reclaims orphaned staging
// directories, then runs the intake pass on a fixed interval and the library
// index pass on its own optional interval. The HTTP API (chi) exposes the
// review operations, library browsing, scan triggers, and a server-sent event
// stream of item transitions.
//
// Keep orchestration logic here: individual pipeline steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// scheduling.
package daemon
