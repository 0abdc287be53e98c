package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// CommentRepository persists comments. Rows live and die with their task.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByTask returns the task's comments ordered by creation time ascending.
	ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error)
	UpdateText(ctx context.Context, id, text string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByTask cascades a task deletion and returns the number of
	// removed comments.
	DeleteByTask(ctx context.Context, taskID string) (int64, error)
}
