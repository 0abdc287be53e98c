package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/api/metrics"
	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/cache"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

const (
	titleMinLen = 3
	titleMaxLen = 255

	defaultPageLimit = 100
	maxPageLimit     = 100
)

// TaskService implements the task use cases. Reads are served through the
// in-process cache; every successful write runs persist, then cache
// invalidation, then broadcast, in that order. Broadcast failures never
// surface to the caller.
type TaskService struct {
	tasks       ports.TaskRepository
	comments    ports.CommentRepository
	attachments ports.AttachmentRepository
	users       ports.UserRepository
	blobs       ports.BlobStore
	cache       *cache.TaskCache
	broadcaster ports.Broadcaster
	now         func() time.Time
	log         zerolog.Logger
}

// TaskOption configures a TaskService.
type TaskOption func(*TaskService)

// WithTaskClock overrides the time source (used by tests).
func WithTaskClock(now func() time.Time) TaskOption {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTaskService builds a TaskService.
func NewTaskService(
	tasks ports.TaskRepository,
	comments ports.CommentRepository,
	attachments ports.AttachmentRepository,
	users ports.UserRepository,
	blobs ports.BlobStore,
	taskCache *cache.TaskCache,
	broadcaster ports.Broadcaster,
	log zerolog.Logger,
	opts ...TaskOption,
) *TaskService {
	s := &TaskService{
		tasks:       tasks,
		comments:    comments,
		attachments: attachments,
		users:       users,
		blobs:       blobs,
		cache:       taskCache,
		broadcaster: broadcaster,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one filtered, paginated page of tasks. Anyone may list,
// including anonymous callers. The page is served from the list slot when
// the key matches; otherwise it is read from the repository and cached.
func (s *TaskService) List(ctx context.Context, actor authz.Actor, filter ports.TaskFilter) (*ports.TaskListResult, error) {
	if err := guard(actor, authz.ActionTaskRead, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	key := cache.ListKey(filter.Pairs(), filter.Page, filter.Limit)
	if page := s.cache.GetList(key); page != nil {
		metrics.CacheRequestsTotal.WithLabelValues("list", "hit").Inc()
		return &ports.TaskListResult{
			Count: page.Count,
			Page:  filter.Page,
			Limit: filter.Limit,
			Tasks: page.Tasks,
		}, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("list", "miss").Inc()

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	views, err := s.enrichAll(ctx, tasks)
	if err != nil {
		return nil, err
	}

	s.cache.PutList(key, &cache.TaskListPage{Count: total, Tasks: views})
	return &ports.TaskListResult{
		Count: total,
		Page:  filter.Page,
		Limit: filter.Limit,
		Tasks: views,
	}, nil
}

// Get returns one task by id, read through the detail slot.
func (s *TaskService) Get(ctx context.Context, actor authz.Actor, id string) (*domain.TaskView, error) {
	if err := guard(actor, authz.ActionTaskRead, authz.Resource{}); err != nil {
		return nil, err
	}

	if view := s.cache.GetDetail(id); view != nil {
		metrics.CacheRequestsTotal.WithLabelValues("detail", "hit").Inc()
		return view, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("detail", "miss").Inc()

	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.enrich(ctx, task)
	if err != nil {
		return nil, err
	}

	s.cache.PutDetail(id, view)
	return view, nil
}

// Create persists a new task authored by the actor. Executor defaults to
// the author and must reference an existing user.
func (s *TaskService) Create(ctx context.Context, actor authz.Actor, input ports.CreateTaskInput) (*domain.TaskView, error) {
	if err := guard(actor, authz.ActionTaskCreate, authz.Resource{}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	status := input.Status
	if status == "" {
		status = domain.StatusToDo
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	executorID := input.ExecutorID
	if executorID == "" {
		executorID = actor.ID
	}

	var reasons []string
	if n := len([]rune(title)); n < titleMinLen || n > titleMaxLen {
		reasons = append(reasons, fmt.Sprintf("title must be %d to %d characters", titleMinLen, titleMaxLen))
	}
	if !status.Valid() {
		reasons = append(reasons, fmt.Sprintf("status %q is not recognized", status))
	}
	if !priority.Valid() {
		reasons = append(reasons, fmt.Sprintf("priority %q is not recognized", priority))
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}

	if executorID != actor.ID {
		if _, err := s.users.FindByID(ctx, executorID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.NewValidationError([]string{"executor_id does not reference an existing user"})
			}
			return nil, fmt.Errorf("create task: %w", err)
		}
	}

	now := s.now().UTC()
	created, err := s.tasks.Create(ctx, &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		AuthorID:    actor.ID,
		ExecutorID:  executorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	view, err := s.enrich(ctx, created)
	if err != nil {
		return nil, err
	}

	s.invalidate(created.ID)
	s.broadcaster.Publish(domain.TaskCreated(view))

	s.log.Info().Str("task_id", created.ID).Str("author_id", actor.ID).Msg("task created")
	return view, nil
}

// Update applies the patch to the task. Admins may update only their own
// tasks; super_admin may update any. An effectively empty patch is an error
// so accidental no-op PUTs are caught.
func (s *TaskService) Update(ctx context.Context, actor authz.Actor, id string, patch ports.TaskPatch) (*domain.TaskView, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(actor, authz.ActionTaskUpdate, authz.Owned(task.AuthorID)); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	var reasons []string
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if n := len([]rune(trimmed)); n < titleMinLen || n > titleMaxLen {
			reasons = append(reasons, fmt.Sprintf("title must be %d to %d characters", titleMinLen, titleMaxLen))
		}
		patch.Title = &trimmed
	}
	if patch.Status != nil && !patch.Status.Valid() {
		reasons = append(reasons, fmt.Sprintf("status %q is not recognized", *patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		reasons = append(reasons, fmt.Sprintf("priority %q is not recognized", *patch.Priority))
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}

	if patch.ExecutorID != nil && *patch.ExecutorID != task.ExecutorID {
		if _, err := s.users.FindByID(ctx, *patch.ExecutorID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.NewValidationError([]string{"executor_id does not reference an existing user"})
			}
			return nil, fmt.Errorf("update task: %w", err)
		}
	}

	patch.UpdatedAt = s.now().UTC()
	updated, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	view, err := s.enrich(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.invalidate(id)
	s.broadcaster.Publish(domain.TaskUpdated(view))

	s.log.Info().Str("task_id", id).Str("actor_id", actor.ID).Msg("task updated")
	return view, nil
}

// Delete removes the task plus its comments and attachments. Blob removal
// is best effort: an orphaned file on disk is preferable to a half-deleted
// task.
func (s *TaskService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := guard(actor, authz.ActionTaskDelete, authz.Owned(task.AuthorID)); err != nil {
		return err
	}

	existed, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !existed {
		return domain.ErrTaskNotFound
	}

	if _, err := s.comments.DeleteByTask(ctx, id); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to cascade comment deletion")
	}
	storedNames, err := s.attachments.DeleteByTask(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to cascade attachment deletion")
	}
	for _, name := range storedNames {
		if err := s.blobs.Remove(ctx, name); err != nil {
			s.log.Warn().Err(err).Str("stored_name", name).Msg("failed to remove attachment blob")
		}
	}

	s.invalidate(id)
	s.broadcaster.Publish(domain.TaskDeleted(id))

	s.log.Info().Str("task_id", id).Str("actor_id", actor.ID).Msg("task deleted")
	return nil
}

// invalidate clears both cache slots for a written task.
func (s *TaskService) invalidate(taskID string) {
	s.cache.InvalidateList()
	metrics.CacheInvalidationsTotal.WithLabelValues("list").Inc()
	s.cache.InvalidateDetail(taskID)
	metrics.CacheInvalidationsTotal.WithLabelValues("detail").Inc()
}

// enrich resolves display names for one task.
func (s *TaskService) enrich(ctx context.Context, task *domain.Task) (*domain.TaskView, error) {
	views, err := s.enrichAll(ctx, []domain.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// enrichAll resolves author and executor display names in one bulk lookup.
// A referenced user that has since been deleted yields an empty name rather
// than an error.
func (s *TaskService) enrichAll(ctx context.Context, tasks []domain.Task) ([]domain.TaskView, error) {
	ids := make([]string, 0, len(tasks)*2)
	seen := make(map[string]struct{}, len(tasks)*2)
	for _, t := range tasks {
		for _, id := range []string{t.AuthorID, t.ExecutorID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	var names map[string]domain.User
	if len(ids) > 0 {
		var err error
		names, err = s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve user names: %w", err)
		}
	}

	views := make([]domain.TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = domain.TaskView{
			Task:         t,
			AuthorName:   names[t.AuthorID].Username,
			ExecutorName: names[t.ExecutorID].Username,
		}
	}
	return views, nil
}

// validateFilter rejects unrecognized enum values in list filters instead of
// silently matching nothing.
func validateFilter(filter ports.TaskFilter) error {
	var reasons []string
	if filter.Status != "" && !domain.TaskStatus(filter.Status).Valid() {
		reasons = append(reasons, fmt.Sprintf("status %q is not recognized", filter.Status))
	}
	if filter.Priority != "" && !domain.TaskPriority(filter.Priority).Valid() {
		reasons = append(reasons, fmt.Sprintf("priority %q is not recognized", filter.Priority))
	}
	return domain.NewValidationError(reasons)
}
