package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
)

const contextPrincipalKey = "principal"

// bearerToken pulls the credential out of the Authorization header. An empty
// string means no credential was presented.
func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authMiddleware authenticates the request's bearer credential and attaches
// the resolved principal to the context. Every failure surfaces as the same
// unauthenticated error; the cause stays in the logs.
func authMiddleware(guard *auth.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := guard.Authenticate(ctx.Request().Context(), bearerToken(ctx))
			if err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

// roleMiddleware restricts a route to the given roles. It must run after
// authMiddleware.
func roleMiddleware(guard *auth.Guard, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if err := guard.Authorize(p, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

func getContextPrincipal(ctx echo.Context) (principal.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(principal.Principal); ok {
		return p, nil
	}
	return principal.Principal{}, auth.ErrMissingCredential
}
