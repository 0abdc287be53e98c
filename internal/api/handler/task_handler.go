package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// TaskHandler serves the task CRUD endpoints.
type TaskHandler struct {
	tasks ports.TaskService
}

func NewTaskHandler(tasks ports.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	ExecutorID  string  `json:"executor_id"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	ExecutorID  *string `json:"executor_id"`
}

// List returns a filtered, paginated task page. Open to anonymous callers.
func (h *TaskHandler) List(c echo.Context) error {
	filter := ports.TaskFilter{
		Status:     c.QueryParam("status"),
		Priority:   c.QueryParam("priority"),
		AuthorID:   c.QueryParam("author_id"),
		ExecutorID: c.QueryParam("executor_id"),
	}

	var reasons []string
	if raw := c.QueryParam("due_date_before"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			reasons = append(reasons, "due_date_before must be a date (YYYY-MM-DD)")
		} else {
			filter.DueBefore = &t
		}
	}
	if raw := c.QueryParam("due_date_after"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			reasons = append(reasons, "due_date_after must be a date (YYYY-MM-DD)")
		} else {
			filter.DueAfter = &t
		}
	}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			reasons = append(reasons, "page must be a positive integer")
		} else {
			filter.Page = n
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			reasons = append(reasons, "limit must be a positive integer")
		} else {
			filter.Limit = n
		}
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return err
	}

	result, err := h.tasks.List(c.Request().Context(), middleware.Actor(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns one task by id. Open to anonymous callers.
func (h *TaskHandler) Get(c echo.Context) error {
	view, err := h.tasks.Get(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Create makes a new task authored by the caller.
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		ExecutorID:  req.ExecutorID,
	}
	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			return domain.NewValidationError([]string{"due_date must be a date (YYYY-MM-DD)"})
		}
		input.DueDate = &t
	}

	view, err := h.tasks.Create(c.Request().Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// Update applies a partial update to the task.
func (h *TaskHandler) Update(c echo.Context) error {
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	patch := ports.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		ExecutorID:  req.ExecutorID,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			return domain.NewValidationError([]string{"due_date must be a date (YYYY-MM-DD)"})
		}
		patch.DueDate = &t
	}

	view, err := h.tasks.Update(c.Request().Context(), middleware.Actor(c), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes the task and everything attached to it.
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.tasks.Delete(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// parseDate accepts plain dates and full RFC 3339 timestamps.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
