package types

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a record in a write set was no longer pending at commit time.
	ErrConflict    = errors.New("booking request is no longer pending")
	ErrMixedPolicy = errors.New("write set mixes expiration policies")
	ErrEmptyBatch  = errors.New("write set is empty")
)
