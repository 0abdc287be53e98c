package ports

import (
	"context"
	"time"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// TaskFilter carries the query parameters of a task list. String fields are
// matched exactly when non-empty; date bounds are inclusive.
type TaskFilter struct {
	Status     string
	Priority   string
	AuthorID   string
	ExecutorID string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Page       int // 1-based
	Limit      int
}

// Pairs returns the set filters as key/value pairs for cache key
// canonicalization. Date bounds are rendered in UTC at full precision:
// queries differing only in time of day must not share a key.
func (f TaskFilter) Pairs() map[string]string {
	pairs := map[string]string{
		"status":      f.Status,
		"priority":    f.Priority,
		"author_id":   f.AuthorID,
		"executor_id": f.ExecutorID,
	}
	if f.DueBefore != nil {
		pairs["due_date_before"] = f.DueBefore.UTC().Format(time.RFC3339Nano)
	}
	if f.DueAfter != nil {
		pairs["due_date_after"] = f.DueAfter.UTC().Format(time.RFC3339Nano)
	}
	return pairs
}

// TaskPatch is the update allow-list: title, description, status, priority,
// due date, executor. Author and id are immutable after creation. Nil means
// "leave unchanged". UpdatedAt is stamped by the service from its clock.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
	ExecutorID  *string
	UpdatedAt   time.Time
}

// Empty reports whether the patch carries no allow-listed fields.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.ExecutorID == nil
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns one page ordered by creation time descending plus the
	// total number of rows matching the filter.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, int64, error)
	// Update applies the patch and returns the updated task. An absent id
	// surfaces as domain.ErrTaskNotFound.
	Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error)
	// Delete removes the task row and reports whether it existed. Cascading
	// of comments and attachments is the service's job.
	Delete(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int64, error)
	CountByPriority(ctx context.Context) (map[domain.TaskPriority]int64, error)
}
