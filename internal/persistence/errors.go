package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint fails.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")

	// ErrOverlap is returned by the booking write path when the candidate
	// interval collides with an existing buffered event.
	ErrOverlap = errors.New("persistence: interval overlaps an existing event")
	// ErrLinkExpired is returned when a link booking commits after the
	// link's expiry.
	ErrLinkExpired = errors.New("persistence: scheduling link expired")
	// ErrLinkExhausted is returned when a link booking would exceed the
	// link's maximum use count.
	ErrLinkExhausted = errors.New("persistence: scheduling link exhausted")
)
