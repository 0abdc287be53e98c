package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// RegisterInput carries a registration request. Role defaults to
// domain.RoleUser when empty.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     domain.Role
}

// AdminStats is the aggregate served on the admin panel.
type AdminStats struct {
	TasksByStatus   map[domain.TaskStatus]int64   `json:"tasks_by_status"`
	TasksByPriority map[domain.TaskPriority]int64 `json:"tasks_by_priority"`
	ActiveUsers     []domain.UserStats            `json:"active_users"`
}

// UserService covers registration, login and user administration.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// Login verifies credentials and issues a session token.
	Login(ctx context.Context, email, password string) (*domain.AuthToken, *domain.User, error)
	GetUser(ctx context.Context, actor authz.Actor, id string) (*domain.User, error)
	ListUsers(ctx context.Context, actor authz.Actor) ([]domain.User, error)
	UpdateProfile(ctx context.Context, actor authz.Actor, patch ProfilePatch) (*domain.User, error)
	Stats(ctx context.Context, actor authz.Actor) (*AdminStats, error)
	SetRole(ctx context.Context, actor authz.Actor, userID string, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, actor authz.Actor, userID string) error
}
