package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// ProfilePatch carries the optional profile fields of a PUT /users/me.
// Nil means "leave unchanged".
type ProfilePatch struct {
	Email    *string
	Username *string
}

// Empty reports whether the patch carries no fields.
func (p ProfilePatch) Empty() bool {
	return p.Email == nil && p.Username == nil
}

// UsageCounts summarizes how much content references a user; deletion is
// refused while either count is non-zero.
type UsageCounts struct {
	Tasks    int64
	Comments int64
}

// InUse reports whether any content still references the user.
func (u UsageCounts) InUse() bool {
	return u.Tasks > 0 || u.Comments > 0
}

// UserRepository persists accounts (the credential store).
type UserRepository interface {
	// Create inserts the user and returns it with its assigned id.
	// A duplicate email surfaces as domain.ErrEmailExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs resolves users in bulk for display-name enrichment.
	// Unknown ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	UsageCounts(ctx context.Context, id string) (UsageCounts, error)
	// ActiveUsers lists the most active users by authored tasks + comments.
	ActiveUsers(ctx context.Context, limit int) ([]domain.UserStats, error)
}
