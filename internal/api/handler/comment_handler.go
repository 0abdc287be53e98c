package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// CommentHandler serves the per-task comment endpoints.
type CommentHandler struct {
	comments ports.CommentService
}

func NewCommentHandler(comments ports.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

// List returns the task's comments oldest first. Open to anonymous callers.
func (h *CommentHandler) List(c echo.Context) error {
	views, err := h.comments.ListByTask(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Create adds a comment to the task.
func (h *CommentHandler) Create(c echo.Context) error {
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	view, err := h.comments.Add(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// Update replaces the comment text.
func (h *CommentHandler) Update(c echo.Context) error {
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	view, err := h.comments.Update(c.Request().Context(), middleware.Actor(c), c.Param("commentId"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes the comment.
func (h *CommentHandler) Delete(c echo.Context) error {
	if err := h.comments.Delete(c.Request().Context(), middleware.Actor(c), c.Param("commentId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
