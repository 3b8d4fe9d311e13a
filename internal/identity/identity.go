// Package identity adapts the portal's authentication collaborator for the
// scheduling service. The portal is the source of truth for who a caller is;
// this package only validates the credential it hands out and maps it to a
// stable user id.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidCredential is returned for any token that does not resolve to a
// known caller. The reason is deliberately opaque.
var ErrInvalidCredential = errors.New("identity: invalid credential")

// Validator resolves a bearer credential to the caller's stable user id.
type Validator interface {
	Validate(ctx context.Context, credential string) (string, error)
}
