package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// AdminHandler serves the admin panel endpoints.
type AdminHandler struct {
	users ports.UserService
}

func NewAdminHandler(users ports.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Stats returns the aggregate panel numbers.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// SetRole changes a user's role.
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.SetRole(c.Request().Context(), middleware.Actor(c), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account that no longer owns content.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.users.DeleteUser(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
