package domain

import "time"

// Role is the global role of a user. Unlike task ownership it is not
// resource-scoped: one role per account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the recognized roles. Anything else is
// rejected at registration / role-change time rather than coerced.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role carries admin privileges.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User models an account in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthToken is an opaque bearer token row. A token is valid iff the row
// still exists and ExpiresAt is in the future; deleting the row revokes it.
type AuthToken struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the token is expired at the given instant.
func (t AuthToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// UserStats is the per-user activity row surfaced on the admin panel.
type UserStats struct {
	User          User  `json:"user"`
	TasksCount    int64 `json:"tasks_count"`
	CommentsCount int64 `json:"comments_count"`
}
