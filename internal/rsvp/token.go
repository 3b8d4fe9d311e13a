// Package rsvp issues and verifies the signed tokens that let an attendee
// change their own invitation status from a plain emailed link, without an
// authenticated session.
package rsvp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Service derives deterministic tokens from a server-held secret. Tokens are
// never stored; verification recomputes them, so there is no lookup table to
// maintain and nothing to forge without the secret.
type Service struct {
	secret []byte
}

// NewService constructs a token service around the shared secret.
func NewService(secret []byte) *Service {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Service{secret: key}
}

// Issue returns the token binding the attendee to the event.
func (s *Service) Issue(attendeeID, eventID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(attendeeID))
	mac.Write([]byte(":"))
	mac.Write([]byte(eventID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the token and compares in constant time. Callers must
// treat a false result as an authentication failure without revealing which
// input was wrong.
func (s *Service) Verify(attendeeID, eventID, token string) bool {
	if s == nil || token == "" {
		return false
	}
	expected := s.Issue(attendeeID, eventID)
	return hmac.Equal([]byte(expected), []byte(token))
}
