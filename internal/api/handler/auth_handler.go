package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// AuthHandler serves registration, login and the token lifecycle endpoints.
type AuthHandler struct {
	users  ports.UserService
	tokens ports.TokenService
}

func NewAuthHandler(users ports.UserService, tokens ports.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user,omitempty"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and returns a fresh bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	})
}

// Refresh rotates the presented token: the reply carries a new token with a
// full TTL window and the old value stops working.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.tokens.Rotate(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Logout revokes the presenting token. Idempotent: logging out twice with
// the same token still succeeds for the first call and fails auth on the
// second, because the middleware no longer resolves it.
func (h *AuthHandler) Logout(c echo.Context) error {
	value, ok := middleware.BearerToken(c)
	if !ok {
		return domain.ErrUnauthenticated
	}
	if _, err := h.tokens.Revoke(c.Request().Context(), value); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(c echo.Context) error {
	actor := middleware.Actor(c)
	user, err := h.users.GetUser(c.Request().Context(), actor, actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

// UpdateMe changes the authenticated user's own email and/or username.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), middleware.Actor(c), ports.ProfilePatch{
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
