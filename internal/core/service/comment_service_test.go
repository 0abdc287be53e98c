package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

type commentFixture struct {
	svc       *CommentService
	comments  *stubCommentRepo
	tasks     *stubTaskRepo
	users     *stubUserRepo
	broadcast *recordBroadcaster
	taskID    string
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	f := &commentFixture{
		comments:  newStubCommentRepo(),
		tasks:     newStubTaskRepo(),
		users:     newStubUserRepo(),
		broadcast: &recordBroadcaster{},
	}
	f.users.seed("u1", "alice", domain.RoleUser)
	f.users.seed("u2", "bob", domain.RoleUser)
	f.users.seed("a1", "boss", domain.RoleAdmin)
	task, _ := f.tasks.Create(context.Background(), &domain.Task{Title: "починить сервер", AuthorID: "a1"})
	f.taskID = task.ID
	f.svc = NewCommentService(f.comments, f.tasks, f.users, f.broadcast, discardLogger)
	return f
}

func TestCommentService_Add(t *testing.T) {
	f := newCommentFixture(t)

	view, err := f.svc.Add(context.Background(), userActor, f.taskID, "  нужно больше логов  ")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if view.Text != "нужно больше логов" {
		t.Errorf("text must be trimmed, got %q", view.Text)
	}
	if view.AuthorID != "u1" || view.AuthorName != "alice" {
		t.Errorf("author not enriched: %+v", view)
	}

	events := f.broadcast.all()
	if len(events) != 1 || events[0].Type != domain.EventCreated {
		t.Fatalf("expected one created event, got %+v", events)
	}
	if events[0].TaskID != f.taskID || events[0].CommentID != view.ID {
		t.Errorf("event ids: %+v", events[0])
	}
	if events[0].Comment == nil || events[0].Comment.AuthorName != "alice" {
		t.Errorf("created event must carry the enriched comment: %+v", events[0].Comment)
	}
}

func TestCommentService_Add_Anonymous(t *testing.T) {
	f := newCommentFixture(t)
	if _, err := f.svc.Add(context.Background(), authz.Anonymous, f.taskID, "привет"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCommentService_Add_UnknownTask(t *testing.T) {
	f := newCommentFixture(t)
	if _, err := f.svc.Add(context.Background(), userActor, "missing", "привет"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCommentService_Add_TextBounds(t *testing.T) {
	f := newCommentFixture(t)

	var ve *domain.ValidationError
	if _, err := f.svc.Add(context.Background(), userActor, f.taskID, "   "); !errors.As(err, &ve) {
		t.Errorf("whitespace-only text: expected ValidationError, got %v", err)
	}

	atLimit := strings.Repeat("ж", domain.CommentMaxLen)
	if _, err := f.svc.Add(context.Background(), userActor, f.taskID, atLimit); err != nil {
		t.Errorf("text at the limit must pass: %v", err)
	}

	over := strings.Repeat("ж", domain.CommentMaxLen+1)
	if _, err := f.svc.Add(context.Background(), userActor, f.taskID, over); !errors.As(err, &ve) {
		t.Errorf("text over the limit: expected ValidationError, got %v", err)
	}
}

func TestCommentService_ListByTask(t *testing.T) {
	f := newCommentFixture(t)
	_, _ = f.svc.Add(context.Background(), userActor, f.taskID, "первый")
	_, _ = f.svc.Add(context.Background(), authz.Actor{ID: "u2", Role: domain.RoleUser}, f.taskID, "второй")

	views, err := f.svc.ListByTask(context.Background(), authz.Anonymous, f.taskID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(views))
	}
	if views[0].Text != "первый" || views[1].Text != "второй" {
		t.Errorf("comments must come back oldest first: %q, %q", views[0].Text, views[1].Text)
	}
	if views[1].AuthorName != "bob" {
		t.Errorf("second comment author not enriched: %+v", views[1])
	}

	if _, err := f.svc.ListByTask(context.Background(), authz.Anonymous, "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("missing task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestCommentService_Update_Ownership(t *testing.T) {
	f := newCommentFixture(t)
	created, _ := f.svc.Add(context.Background(), userActor, f.taskID, "оригинал")
	bob := authz.Actor{ID: "u2", Role: domain.RoleUser}

	if _, err := f.svc.Update(context.Background(), bob, created.ID, "чужая правка"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign user: expected ErrForbidden, got %v", err)
	}

	// The author edits their own comment.
	view, err := f.svc.Update(context.Background(), userActor, created.ID, "поправил")
	if err != nil {
		t.Fatalf("author update failed: %v", err)
	}
	if view.Text != "поправил" {
		t.Errorf("text not updated: %q", view.Text)
	}

	// Admins edit anyone's.
	if _, err := f.svc.Update(context.Background(), adminActor, created.ID, "модерация"); err != nil {
		t.Errorf("admin update failed: %v", err)
	}

	events := f.broadcast.all()
	last := events[len(events)-1]
	if last.Type != domain.EventUpdated || last.CommentID != created.ID {
		t.Errorf("unexpected event: %+v", last)
	}
}

func TestCommentService_Delete(t *testing.T) {
	f := newCommentFixture(t)
	created, _ := f.svc.Add(context.Background(), userActor, f.taskID, "удалить меня")
	bob := authz.Actor{ID: "u2", Role: domain.RoleUser}

	if err := f.svc.Delete(context.Background(), bob, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign user: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), userActor, created.ID); err != nil {
		t.Fatalf("author delete failed: %v", err)
	}
	if err := f.svc.Delete(context.Background(), userActor, created.ID); !errors.Is(err, domain.ErrCommentNotFound) {
		t.Errorf("second delete: expected ErrCommentNotFound, got %v", err)
	}

	events := f.broadcast.all()
	last := events[len(events)-1]
	if last.Type != domain.EventDeleted || last.TaskID != f.taskID || last.CommentID != created.ID {
		t.Errorf("delete event must carry both ids: %+v", last)
	}
	if last.Comment != nil {
		t.Errorf("delete event must not carry a payload: %+v", last.Comment)
	}
}
