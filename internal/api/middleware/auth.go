package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

const actorKey = "actor"

// Required resolves the bearer token and injects the acting user into the
// request context. Requests without a valid token are rejected.
func Required(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value, ok := BearerToken(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			user, err := tokens.Resolve(c.Request().Context(), value)
			if err != nil {
				return err
			}

			c.Set(actorKey, authz.Actor{ID: user.ID, Role: user.Role})
			return next(c)
		}
	}
}

// Optional resolves the bearer token when one is present and falls back to
// the anonymous actor when the header is absent. A header that is present
// but malformed or invalid is still rejected: a client that sends
// credentials must send working ones.
func Optional(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				c.Set(actorKey, authz.Anonymous)
				return next(c)
			}

			value, ok := BearerToken(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			user, err := tokens.Resolve(c.Request().Context(), value)
			if err != nil {
				return err
			}

			c.Set(actorKey, authz.Actor{ID: user.ID, Role: user.Role})
			return next(c)
		}
	}
}

// Actor returns the acting user injected by Required or Optional. Handlers
// on routes without either middleware see the anonymous actor.
func Actor(c echo.Context) authz.Actor {
	if actor, ok := c.Get(actorKey).(authz.Actor); ok {
		return actor
	}
	return authz.Anonymous
}

// BearerToken extracts the opaque token from the Authorization header.
func BearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
