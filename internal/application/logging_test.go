package application

import (
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("title", "title is required")

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{ErrNotFound, "not_found"},
		{ErrAlreadyExists, "already_exists"},
		{ErrSlotUnavailable, "slot_unavailable"},
		{ErrInvalidToken, "invalid_token"},
		{&PolicyError{Reason: PolicyReasonLeadTime}, "policy_lead_time"},
		{&PolicyError{Reason: PolicyReasonLinkExhausted}, "policy_link_exhausted"},
		{vErr, "validation"},
		{fmt.Errorf("wrapped: %w", ErrSlotUnavailable), "slot_unavailable"},
		{fmt.Errorf("boom"), "unexpected"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
