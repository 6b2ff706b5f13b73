package store

import "errors"

var (
	// ErrConflict means the write collides with existing data: an overlapping booked
	// appointment, or a provider slug that is already taken.
	ErrConflict = errors.New("conflict with existing booking or record")
	ErrNotFound = errors.New("not found")
	// ErrIdempotencyConflict means an idempotency key was reused for a different booking.
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different booking")
)
