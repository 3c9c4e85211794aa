// Package main hosts the tuneshelf CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon and exposes the review
// workflow against the local item store: listing and editing items,
// confirming them into the library, running intake and library passes, and
// scaffolding configuration. Commands that report live daemon state ask the
// daemon's HTTP API; everything else opens the store directly.
package main
