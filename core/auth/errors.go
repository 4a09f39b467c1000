package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Credential-level failures. All of these (plus the principal-level
// not-found/deactivated/locked errors) surface to callers as a bare 401;
// the specific cause is for operator logs only, never echoed back, so a
// caller cannot probe which accounts exist or are locked.
var (
	ErrMissingCredential   = errors.New("no credential provided")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpiredCredential   = errors.New("expired credential")
)

// RoleError is the one authorization failure that is safe to disclose in
// full: the caller is already authenticated, only the route's role set
// rejected them.
type RoleError struct {
	Required []string
	Actual   string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("role %q is not one of the allowed roles [%s]",
		e.Actual, strings.Join(e.Required, ", "))
}
