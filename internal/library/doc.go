// Package library indexes the canonical library tree into the store so the
// duplicate-artist matcher and the library endpoints have something to query.
//
// An index pass walks library_dir, drops rows for files that disappeared, and
// re-reads tags only for files whose size or mtime changed since the last
// pass (or every file when forced).
package library
