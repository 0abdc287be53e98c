package ports

import (
	"context"
	"time"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// CreateTaskInput carries a task creation request. Executor defaults to the
// author when unset; status and priority default to "к выполнению" and
// "средний".
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
	ExecutorID  string
}

// TaskListResult is one page of enriched tasks plus the total match count.
type TaskListResult struct {
	Count int64             `json:"count"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Tasks []domain.TaskView `json:"tasks"`
}

// TaskService covers the task use cases. Reads go through the cache; writes
// sequence persist → invalidate cache → broadcast.
type TaskService interface {
	List(ctx context.Context, actor authz.Actor, filter TaskFilter) (*TaskListResult, error)
	Get(ctx context.Context, actor authz.Actor, id string) (*domain.TaskView, error)
	Create(ctx context.Context, actor authz.Actor, input CreateTaskInput) (*domain.TaskView, error)
	Update(ctx context.Context, actor authz.Actor, id string, patch TaskPatch) (*domain.TaskView, error)
	Delete(ctx context.Context, actor authz.Actor, id string) error
}
