// Package scanner runs at most one background pass at a time over a set of
// files and exposes its progress as a thread-safe snapshot.
package scanner
