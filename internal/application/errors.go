package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource would be duplicated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrSlotUnavailable is returned when the requested interval conflicts
	// with an existing event or falls outside the owner's availability.
	ErrSlotUnavailable = errors.New("application: slot unavailable")
	// ErrInvalidToken is returned when an RSVP token fails verification.
	ErrInvalidToken = errors.New("application: invalid token")
)

// Policy reason codes surfaced to API clients when a booking is rejected for
// a reason other than a calendar conflict.
const (
	PolicyReasonLeadTime      = "lead_time"
	PolicyReasonHorizon       = "horizon"
	PolicyReasonLinkExpired   = "link_expired"
	PolicyReasonLinkExhausted = "link_exhausted"
)

// PolicyError rejects a booking that violates a scheduling policy. Reason is
// one of the PolicyReason constants and is stable for clients to branch on.
type PolicyError struct {
	Reason string
}

// Error implements the error interface.
func (p *PolicyError) Error() string {
	return fmt.Sprintf("scheduling policy violated: %s", p.Reason)
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
