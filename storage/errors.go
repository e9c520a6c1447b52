package storage

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrPreconditionFailed is returned when an If-Match or If-None-Match
	// condition does not hold.
	ErrPreconditionFailed = errors.New("storage: precondition failed")
)
