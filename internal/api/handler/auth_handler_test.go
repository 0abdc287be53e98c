package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/api"
	"github.com/taskmgr/task-manager-api/internal/api/handler"
	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// fakeUserService accepts one known credential pair and records the last
// registration input.
type fakeUserService struct {
	lastRegister ports.RegisterInput
	registerErr  error
}

func (s *fakeUserService) Register(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.lastRegister = input
	return &domain.User{ID: "u1", Email: input.Email, Username: input.Username, Role: domain.RoleUser}, nil
}

func (s *fakeUserService) Login(_ context.Context, email, password string) (*domain.AuthToken, *domain.User, error) {
	if email != "alice@example.com" || password != "secret1" {
		return nil, nil, domain.ErrUnauthenticated
	}
	return &domain.AuthToken{
			Token:     "fresh-token",
			UserID:    "u1",
			ExpiresAt: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
		}, &domain.User{ID: "u1", Email: email, Username: "alice", Role: domain.RoleUser},
		nil
}

func (s *fakeUserService) GetUser(context.Context, authz.Actor, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *fakeUserService) ListUsers(context.Context, authz.Actor) ([]domain.User, error) {
	return nil, nil
}

func (s *fakeUserService) UpdateProfile(context.Context, authz.Actor, ports.ProfilePatch) (*domain.User, error) {
	return nil, domain.ErrNoFieldsToUpdate
}

func (s *fakeUserService) Stats(context.Context, authz.Actor) (*ports.AdminStats, error) {
	return nil, domain.ErrForbidden
}

func (s *fakeUserService) SetRole(context.Context, authz.Actor, string, domain.Role) (*domain.User, error) {
	return nil, domain.ErrForbidden
}

func (s *fakeUserService) DeleteUser(context.Context, authz.Actor, string) error {
	return domain.ErrForbidden
}

// fakeRotator rotates one known token.
type fakeRotator struct{}

func (fakeRotator) Issue(context.Context, string) (*domain.AuthToken, error) {
	return nil, errors.New("not implemented")
}

func (fakeRotator) Resolve(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

func (fakeRotator) Rotate(_ context.Context, old string) (*domain.AuthToken, error) {
	if old != "old-token" {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.AuthToken{Token: "rotated-token", UserID: "u1", ExpiresAt: time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)}, nil
}

func (fakeRotator) Revoke(_ context.Context, token string) (bool, error) {
	return token == "old-token", nil
}

func (fakeRotator) RevokeAll(context.Context, string) (int64, error) {
	return 0, nil
}

func newAuthServer(users ports.UserService) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())

	h := handler.NewAuthHandler(users, fakeRotator{})
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	users := &fakeUserService{}
	e := newAuthServer(users)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","username":"alice","password":"secret1"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want 201, got %d (%s)", rec.Code, rec.Body)
	}
	if users.lastRegister.Email != "alice@example.com" {
		t.Errorf("register input not forwarded: %+v", users.lastRegister)
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if user.ID != "u1" || user.Role != domain.RoleUser {
		t.Errorf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	e := newAuthServer(&fakeUserService{})

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"alice@example.com"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", rec.Code)
	}
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Error != "validation failed" {
		t.Errorf("error message: %q", body.Error)
	}
	if len(body.Details) != 2 {
		t.Errorf("expected username and password reported together, got %v", body.Details)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := newAuthServer(&fakeUserService{registerErr: domain.ErrEmailExists})

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","username":"alice","password":"secret1"}`)

	if rec.Code != http.StatusConflict {
		t.Errorf("status: want 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	e := newAuthServer(&fakeUserService{})

	rec := doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"secret1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d (%s)", rec.Code, rec.Body)
	}
	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		User      *struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Token != "fresh-token" {
		t.Errorf("token: %q", body.Token)
	}
	if body.ExpiresAt.IsZero() {
		t.Error("expires_at must be set")
	}
	if body.User == nil || body.User.Username != "alice" {
		t.Errorf("user payload: %+v", body.User)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	e := newAuthServer(&fakeUserService{})

	rec := doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: want 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newAuthServer(&fakeUserService{})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{"token":"old-token"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d (%s)", rec.Code, rec.Body)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Token != "rotated-token" {
		t.Errorf("token: %q", body.Token)
	}

	rec = doJSON(e, http.MethodPost, "/auth/refresh", `{"token":"stale-token"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("stale token: want 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newAuthServer(&fakeUserService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer old-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: want 204, got %d", rec.Code)
	}

	// Without a header there is no session to end.
	rec = doJSON(e, http.MethodPost, "/auth/logout", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: want 401, got %d", rec.Code)
	}
}
