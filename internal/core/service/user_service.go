package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

const (
	usernameMinLen = 2
	usernameMaxLen = 50
	passwordMinLen = 6
	activeUsersTop = 10
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserService implements registration, login and user administration.
type UserService struct {
	users    ports.UserRepository
	tasks    ports.TaskRepository
	sessions ports.TokenService
	log      zerolog.Logger
}

// NewUserService builds a UserService.
func NewUserService(users ports.UserRepository, tasks ports.TaskRepository, sessions ports.TokenService, log zerolog.Logger) *UserService {
	return &UserService{users: users, tasks: tasks, sessions: sessions, log: log}
}

// Register creates an account. All validation failures are aggregated into
// one ValidationError; a taken email surfaces as domain.ErrEmailExists.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	var reasons []string
	if email == "" {
		reasons = append(reasons, "email is required")
	} else if !emailPattern.MatchString(email) {
		reasons = append(reasons, "email format is invalid")
	}
	switch {
	case username == "":
		reasons = append(reasons, "username is required")
	case len([]rune(username)) < usernameMinLen:
		reasons = append(reasons, fmt.Sprintf("username must be at least %d characters", usernameMinLen))
	case len([]rune(username)) > usernameMaxLen:
		reasons = append(reasons, fmt.Sprintf("username must be at most %d characters", usernameMaxLen))
	}
	if len(input.Password) < passwordMinLen {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters", passwordMinLen))
	}
	if !role.Valid() {
		reasons = append(reasons, "role must be one of: user, admin, super_admin")
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues a session token. A missing account
// and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.AuthToken, *domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, domain.ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrUnauthenticated
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// GetUser returns one user's public profile.
func (s *UserService) GetUser(ctx context.Context, actor authz.Actor, id string) (*domain.User, error) {
	if err := guard(actor, authz.ActionUserRead, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context, actor authz.Actor) ([]domain.User, error) {
	if err := guard(actor, authz.ActionUserRead, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateProfile changes the actor's own username and/or email.
func (s *UserService) UpdateProfile(ctx context.Context, actor authz.Actor, patch ports.ProfilePatch) (*domain.User, error) {
	if actor.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	var reasons []string
	if patch.Email != nil {
		trimmed := strings.TrimSpace(*patch.Email)
		if !emailPattern.MatchString(trimmed) {
			reasons = append(reasons, "email format is invalid")
		}
		patch.Email = &trimmed
	}
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		if n := len([]rune(trimmed)); n < usernameMinLen || n > usernameMaxLen {
			reasons = append(reasons, fmt.Sprintf("username must be %d to %d characters", usernameMinLen, usernameMaxLen))
		}
		patch.Username = &trimmed
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}

	return s.users.UpdateProfile(ctx, actor.ID, patch)
}

// Stats aggregates the admin panel numbers.
func (s *UserService) Stats(ctx context.Context, actor authz.Actor) (*ports.AdminStats, error) {
	if err := guard(actor, authz.ActionStatsRead, authz.Resource{}); err != nil {
		return nil, err
	}

	byStatus, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	byPriority, err := s.tasks.CountByPriority(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	active, err := s.users.ActiveUsers(ctx, activeUsersTop)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	return &ports.AdminStats{
		TasksByStatus:   byStatus,
		TasksByPriority: byPriority,
		ActiveUsers:     active,
	}, nil
}

// SetRole changes a user's role. Only super_admin may do this, and never on
// itself (self-demotion lockout).
func (s *UserService) SetRole(ctx context.Context, actor authz.Actor, userID string, role domain.Role) (*domain.User, error) {
	if err := guard(actor, authz.ActionUserChangeRole, authz.Owned(userID)); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.NewValidationError([]string{"role must be one of: user, admin, super_admin"})
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	// The role is read fresh on every resolve, so existing sessions pick up
	// the change on their next request without token churn.
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Str("actor_id", actor.ID).Msg("role changed")
	return s.users.FindByID(ctx, userID)
}

// DeleteUser removes an account. Refused while the user still authors tasks
// or comments; all of the user's sessions are revoked on success.
func (s *UserService) DeleteUser(ctx context.Context, actor authz.Actor, userID string) error {
	if err := guard(actor, authz.ActionUserDelete, authz.Owned(userID)); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	usage, err := s.users.UsageCounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if usage.InUse() {
		return domain.ErrUserInUse
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke sessions of deleted user")
	}

	s.log.Info().Str("user_id", userID).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}
