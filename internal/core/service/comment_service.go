package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// CommentService implements the comment use cases. Comment writes broadcast
// events but never touch the task cache: cached task payloads do not embed
// comments.
type CommentService struct {
	comments    ports.CommentRepository
	tasks       ports.TaskRepository
	users       ports.UserRepository
	broadcaster ports.Broadcaster
	now         func() time.Time
	log         zerolog.Logger
}

// CommentOption configures a CommentService.
type CommentOption func(*CommentService)

// WithCommentClock overrides the time source (used by tests).
func WithCommentClock(now func() time.Time) CommentOption {
	return func(s *CommentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCommentService builds a CommentService.
func NewCommentService(
	comments ports.CommentRepository,
	tasks ports.TaskRepository,
	users ports.UserRepository,
	broadcaster ports.Broadcaster,
	log zerolog.Logger,
	opts ...CommentOption,
) *CommentService {
	s := &CommentService{
		comments:    comments,
		tasks:       tasks,
		users:       users,
		broadcaster: broadcaster,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListByTask returns the task's comments oldest first. Anyone may read,
// including anonymous callers; a missing task is a 404, not an empty list.
func (s *CommentService) ListByTask(ctx context.Context, actor authz.Actor, taskID string) ([]domain.CommentView, error) {
	if err := guard(actor, authz.ActionCommentRead, authz.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.enrichAll(ctx, comments)
}

// Add creates a comment on the task authored by the actor.
func (s *CommentService) Add(ctx context.Context, actor authz.Actor, taskID, text string) (*domain.CommentView, error) {
	if err := guard(actor, authz.ActionCommentCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	trimmed, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}

	created, err := s.comments.Create(ctx, &domain.Comment{
		TaskID:    taskID,
		AuthorID:  actor.ID,
		Text:      trimmed,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	view, err := s.enrich(ctx, created)
	if err != nil {
		return nil, err
	}
	s.broadcaster.Publish(domain.CommentCreated(view))

	s.log.Info().Str("comment_id", created.ID).Str("task_id", taskID).Str("author_id", actor.ID).Msg("comment added")
	return view, nil
}

// Update replaces the comment text. The author may edit their own comment;
// admin and super_admin may edit any.
func (s *CommentService) Update(ctx context.Context, actor authz.Actor, commentID, text string) (*domain.CommentView, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := guard(actor, authz.ActionCommentUpdate, authz.Owned(comment.AuthorID)); err != nil {
		return nil, err
	}
	trimmed, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}

	updated, err := s.comments.UpdateText(ctx, commentID, trimmed)
	if err != nil {
		return nil, err
	}

	view, err := s.enrich(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.broadcaster.Publish(domain.CommentUpdated(view))

	s.log.Info().Str("comment_id", commentID).Str("actor_id", actor.ID).Msg("comment updated")
	return view, nil
}

// Delete removes the comment under the same ownership rule as Update.
func (s *CommentService) Delete(ctx context.Context, actor authz.Actor, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := guard(actor, authz.ActionCommentDelete, authz.Owned(comment.AuthorID)); err != nil {
		return err
	}

	existed, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !existed {
		return domain.ErrCommentNotFound
	}

	s.broadcaster.Publish(domain.CommentDeleted(comment.TaskID, commentID))

	s.log.Info().Str("comment_id", commentID).Str("actor_id", actor.ID).Msg("comment deleted")
	return nil
}

func (s *CommentService) enrich(ctx context.Context, comment *domain.Comment) (*domain.CommentView, error) {
	views, err := s.enrichAll(ctx, []domain.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CommentService) enrichAll(ctx context.Context, comments []domain.Comment) ([]domain.CommentView, error) {
	ids := make([]string, 0, len(comments))
	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		ids = append(ids, c.AuthorID)
	}

	var names map[string]domain.User
	if len(ids) > 0 {
		var err error
		names, err = s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve author names: %w", err)
		}
	}

	views := make([]domain.CommentView, len(comments))
	for i, c := range comments {
		views[i] = domain.CommentView{Comment: c, AuthorName: names[c.AuthorID].Username}
	}
	return views, nil
}

// validateCommentText trims the text and enforces the length bounds on the
// trimmed result.
func validateCommentText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if n := len([]rune(trimmed)); n < domain.CommentMinLen || n > domain.CommentMaxLen {
		return "", domain.NewValidationError([]string{
			fmt.Sprintf("text must be %d to %d characters after trimming", domain.CommentMinLen, domain.CommentMaxLen),
		})
	}
	return trimmed, nil
}
