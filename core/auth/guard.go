package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

// Guard is the single gate both enforcement points share. The HTTP
// middleware and the realtime handshake are thin transport adapters over
// Authenticate: one pulls the token from the Authorization header, the other
// from the handshake payload, and everything after that is this code.
type Guard struct {
	codec    *Codec
	resolver *principal.Resolver
	logger   core.Logger
}

func NewGuard(codec *Codec, resolver *principal.Resolver, logger core.Logger) *Guard {
	return &Guard{codec: codec, resolver: resolver, logger: logger}
}

// Authenticate turns a bearer token into an access-checked principal:
// verify signature/expiry, resolve against the store the role tag pins,
// then reject inactive or locked accounts. The returned error is one of the
// credential errors in this package or the principal-level
// ErrNotFound/ErrDeactivated/ErrLocked; callers surface all of them as
// unauthenticated without detail.
func (g *Guard) Authenticate(ctx context.Context, token string) (principal.Principal, error) {
	if token == "" {
		return principal.Principal{}, ErrMissingCredential
	}

	claims, err := g.codec.Verify(token)
	if err != nil {
		g.logger.Warn(fmt.Sprintf("credential rejected: %v", err))
		return principal.Principal{}, err
	}

	p, err := g.resolver.Resolve(ctx, claims.Ref())
	if err != nil {
		switch errors.Cause(err) {
		case principal.ErrNotFound, principal.ErrDeactivated, principal.ErrLocked:
			g.logger.Warn(fmt.Sprintf("principal %s rejected: %v", claims.Subject, err))
		}
		return principal.Principal{}, err
	}
	return p, nil
}

// Authorize checks route-level role membership. An empty role set allows any
// authenticated principal.
func (g *Guard) Authorize(p principal.Principal, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	if p.HasRole(roles...) {
		return nil
	}
	return &RoleError{Required: roles, Actual: p.Role}
}

// Refresh re-issues a credential for a still-valid principal, preserving the
// original issue time so the refresh window is bounded.
func (g *Guard) Refresh(ctx context.Context, token string, refreshWindow time.Duration) (string, error) {
	claims, err := g.codec.Verify(token)
	if err != nil {
		return "", err
	}
	p, err := g.resolver.Resolve(ctx, claims.Ref())
	if err != nil {
		return "", err
	}
	if nowFunc().After(time.Unix(claims.OrigIssuedAt, 0).Add(refreshWindow)) {
		return "", ErrExpiredCredential
	}
	return g.codec.Issue(p, claims.OrigIssuedAt)
}
