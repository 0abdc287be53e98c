package ports

import (
	"context"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// CommentService covers the comment use cases.
type CommentService interface {
	ListByTask(ctx context.Context, actor authz.Actor, taskID string) ([]domain.CommentView, error)
	Add(ctx context.Context, actor authz.Actor, taskID, text string) (*domain.CommentView, error)
	Update(ctx context.Context, actor authz.Actor, commentID, text string) (*domain.CommentView, error)
	Delete(ctx context.Context, actor authz.Actor, commentID string) error
}
