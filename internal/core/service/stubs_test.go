package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// User repository stub
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	seq    int
	users  map[string]*domain.User // keyed by id
	usage  map[string]ports.UsageCounts
	active []domain.UserStats
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users: make(map[string]*domain.User),
		usage: make(map[string]ports.UsageCounts),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailExists
		}
	}
	copy := cloneUser(user)
	r.seq++
	copy.ID = fmt.Sprintf("u%d", r.seq)
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.users[id])
	}
	return out, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, domain.ErrEmailExists
			}
		}
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) UsageCounts(_ context.Context, id string) (ports.UsageCounts, error) {
	return r.usage[id], nil
}

func (r *stubUserRepo) ActiveUsers(_ context.Context, limit int) ([]domain.UserStats, error) {
	if limit > 0 && len(r.active) > limit {
		return r.active[:limit], nil
	}
	return r.active, nil
}

// seed inserts a user directly, bypassing validation.
func (r *stubUserRepo) seed(id, username string, role domain.Role) *domain.User {
	u := &domain.User{ID: id, Email: username + "@example.com", Username: username, Role: role}
	r.users[id] = u
	return u
}

// ---------------------------------------------------------------------------
// Token repository stub
// ---------------------------------------------------------------------------

type stubTokenRepo struct {
	tokens    map[string]*domain.AuthToken
	insertErr error
	deleteErr error
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.AuthToken)}
}

func (r *stubTokenRepo) Insert(_ context.Context, token *domain.AuthToken) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *token
	r.tokens[token.Token] = &clone
	return nil
}

func (r *stubTokenRepo) Find(_ context.Context, token string) (*domain.AuthToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	clone := *t
	return &clone, nil
}

func (r *stubTokenRepo) Delete(_ context.Context, token string) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	_, ok := r.tokens[token]
	delete(r.tokens, token)
	return ok, nil
}

func (r *stubTokenRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for value, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, value)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Task repository stub
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	seq   int
	tasks map[string]*domain.Task
	order []string // insertion order, newest last
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	clone := *task
	r.seq++
	clone.ID = fmt.Sprintf("t%d", r.seq)
	r.tasks[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) List(_ context.Context, f ports.TaskFilter) ([]domain.Task, int64, error) {
	var matched []domain.Task
	// Newest first, mirroring the created_at desc sort of the real repo.
	for i := len(r.order) - 1; i >= 0; i-- {
		t := r.tasks[r.order[i]]
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.Priority != "" && string(t.Priority) != f.Priority {
			continue
		}
		if f.AuthorID != "" && t.AuthorID != f.AuthorID {
			continue
		}
		if f.ExecutorID != "" && t.ExecutorID != f.ExecutorID {
			continue
		}
		if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
			continue
		}
		if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
			continue
		}
		matched = append(matched, *t)
	}

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip >= len(matched) {
		return nil, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubTaskRepo) Update(_ context.Context, id string, patch ports.TaskPatch) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		t.DueDate = &due
	}
	if patch.ExecutorID != nil {
		t.ExecutorID = *patch.ExecutorID
	}
	t.UpdatedAt = patch.UpdatedAt
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *stubTaskRepo) CountByStatus(_ context.Context) (map[domain.TaskStatus]int64, error) {
	out := make(map[domain.TaskStatus]int64)
	for _, t := range r.tasks {
		out[t.Status]++
	}
	return out, nil
}

func (r *stubTaskRepo) CountByPriority(_ context.Context) (map[domain.TaskPriority]int64, error) {
	out := make(map[domain.TaskPriority]int64)
	for _, t := range r.tasks {
		out[t.Priority]++
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Comment repository stub
// ---------------------------------------------------------------------------

type stubCommentRepo struct {
	seq      int
	comments map[string]*domain.Comment
	order    []string
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (r *stubCommentRepo) Create(_ context.Context, comment *domain.Comment) (*domain.Comment, error) {
	clone := *comment
	r.seq++
	clone.ID = fmt.Sprintf("c%d", r.seq)
	r.comments[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCommentRepo) ListByTask(_ context.Context, taskID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, id := range r.order {
		if c, ok := r.comments[id]; ok && c.TaskID == taskID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCommentRepo) UpdateText(_ context.Context, id, text string) (*domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	c.Text = text
	clone := *c
	return &clone, nil
}

func (r *stubCommentRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := r.comments[id]
	delete(r.comments, id)
	return ok, nil
}

func (r *stubCommentRepo) DeleteByTask(_ context.Context, taskID string) (int64, error) {
	var n int64
	for id, c := range r.comments {
		if c.TaskID == taskID {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Attachment repository, blob store, broadcaster stubs
// ---------------------------------------------------------------------------

type stubAttachmentRepo struct {
	seq         int
	attachments map[string]*domain.Attachment
	createErr   error
}

func newStubAttachmentRepo() *stubAttachmentRepo {
	return &stubAttachmentRepo{attachments: make(map[string]*domain.Attachment)}
}

func (r *stubAttachmentRepo) Create(_ context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := *att
	r.seq++
	clone.ID = fmt.Sprintf("f%d", r.seq)
	r.attachments[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubAttachmentRepo) FindByID(_ context.Context, id string) (*domain.Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return nil, domain.ErrAttachmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAttachmentRepo) ListByTask(_ context.Context, taskID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range r.attachments {
		if a.TaskID == taskID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAttachmentRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := r.attachments[id]
	delete(r.attachments, id)
	return ok, nil
}

func (r *stubAttachmentRepo) DeleteByTask(_ context.Context, taskID string) ([]string, error) {
	var names []string
	for id, a := range r.attachments {
		if a.TaskID == taskID {
			names = append(names, a.StoredName)
			delete(r.attachments, id)
		}
	}
	return names, nil
}

type stubBlobStore struct {
	blobs   map[string][]byte
	saveErr error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{blobs: make(map[string][]byte)}
}

func (s *stubBlobStore) Save(_ context.Context, storedName string, r io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	s.blobs[storedName] = buf.Bytes()
	return n, nil
}

func (s *stubBlobStore) Open(_ context.Context, storedName string) (io.ReadCloser, error) {
	data, ok := s.blobs[storedName]
	if !ok {
		return nil, fmt.Errorf("blob %q not found", storedName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubBlobStore) Remove(_ context.Context, storedName string) error {
	delete(s.blobs, storedName)
	return nil
}

// recordBroadcaster captures published events for assertions.
type recordBroadcaster struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordBroadcaster) Publish(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordBroadcaster) all() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.events...)
}
