package queue

import "errors"

// ErrNotFound is returned when an item or track row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleStatus is returned by conditional transitions when the row is no
// longer in one of the expected source statuses.
var ErrStaleStatus = errors.New("item status changed concurrently")
