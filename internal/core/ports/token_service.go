package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// TokenService owns the bearer token lifecycle and expiry policy.
type TokenService interface {
	// Issue mints and persists a fresh token for the user.
	Issue(ctx context.Context, userID string) (*domain.AuthToken, error)
	// Resolve maps a token to its owning user, reading the role fresh from
	// the credential store so role changes take effect on the next request.
	// Every failure mode returns domain.ErrUnauthenticated.
	Resolve(ctx context.Context, token string) (*domain.User, error)
	// Rotate validates the old token, mints a replacement with a full fresh
	// TTL window and invalidates the old one in the same logical step.
	Rotate(ctx context.Context, oldToken string) (*domain.AuthToken, error)
	// Revoke deletes the token row. Revoking an absent token reports false
	// but is not an error.
	Revoke(ctx context.Context, token string) (bool, error)
	// RevokeAll revokes every session of a user and returns the count.
	RevokeAll(ctx context.Context, userID string) (int64, error)
}
