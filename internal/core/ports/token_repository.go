package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// TokenRepository persists opaque bearer token rows. At most one row exists
// per token value; deleting the row revokes the token.
type TokenRepository interface {
	Insert(ctx context.Context, token *domain.AuthToken) error
	// Find returns domain.ErrUnauthenticated when the token row is absent.
	// Expiry is the caller's concern (lazy check against the injected clock).
	Find(ctx context.Context, token string) (*domain.AuthToken, error)
	// Delete removes the row and reports whether it existed.
	Delete(ctx context.Context, token string) (bool, error)
	// DeleteByUser revokes every token of a user (used when the account is
	// deleted) and returns the number of revoked rows.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
