package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

type attachmentFixture struct {
	svc         *AttachmentService
	attachments *stubAttachmentRepo
	tasks       *stubTaskRepo
	blobs       *stubBlobStore
	taskID      string
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	t.Helper()
	f := &attachmentFixture{
		attachments: newStubAttachmentRepo(),
		tasks:       newStubTaskRepo(),
		blobs:       newStubBlobStore(),
	}
	task, _ := f.tasks.Create(context.Background(), &domain.Task{Title: "починить сервер", AuthorID: "a1"})
	f.taskID = task.ID
	f.svc = NewAttachmentService(f.attachments, f.tasks, f.blobs, discardLogger)
	return f
}

func uploadInput(taskID string) ports.UploadInput {
	return ports.UploadInput{
		TaskID:      taskID,
		Filename:    "отчёт.pdf",
		ContentType: "application/pdf",
		Body:        bytes.NewReader([]byte("%PDF-1.7 данные")),
	}
}

func TestAttachmentService_Upload(t *testing.T) {
	f := newAttachmentFixture(t)

	att, err := f.svc.Upload(context.Background(), adminActor, uploadInput(f.taskID))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if att.OriginalName != "отчёт.pdf" {
		t.Errorf("original name must be preserved as metadata, got %q", att.OriginalName)
	}
	if att.StoredName == att.OriginalName || !strings.HasSuffix(att.StoredName, ".pdf") {
		t.Errorf("stored name must be server generated with the original extension, got %q", att.StoredName)
	}
	if att.UploaderID != "a1" {
		t.Errorf("uploader: got %q", att.UploaderID)
	}
	if blob, ok := f.blobs.blobs[att.StoredName]; !ok || att.SizeBytes != int64(len(blob)) {
		t.Errorf("blob not stored or size mismatch: size=%d", att.SizeBytes)
	}
}

func TestAttachmentService_Upload_Denied(t *testing.T) {
	f := newAttachmentFixture(t)

	if _, err := f.svc.Upload(context.Background(), userActor, uploadInput(f.taskID)); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("plain user: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Upload(context.Background(), authz.Anonymous, uploadInput(f.taskID)); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAttachmentService_Upload_Validation(t *testing.T) {
	f := newAttachmentFixture(t)

	var ve *domain.ValidationError
	input := uploadInput(f.taskID)
	input.Filename = "   "
	if _, err := f.svc.Upload(context.Background(), adminActor, input); !errors.As(err, &ve) {
		t.Errorf("blank filename: expected ValidationError, got %v", err)
	}

	input = uploadInput(f.taskID)
	input.Body = nil
	if _, err := f.svc.Upload(context.Background(), adminActor, input); !errors.As(err, &ve) {
		t.Errorf("nil body: expected ValidationError, got %v", err)
	}

	if _, err := f.svc.Upload(context.Background(), adminActor, uploadInput("missing")); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("unknown task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestAttachmentService_Upload_HostileFilename(t *testing.T) {
	f := newAttachmentFixture(t)

	input := uploadInput(f.taskID)
	input.Filename = "../../etc/passwd"
	att, err := f.svc.Upload(context.Background(), adminActor, input)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if strings.ContainsAny(att.StoredName, "/\\") {
		t.Errorf("stored name must never contain path separators: %q", att.StoredName)
	}

	input = uploadInput(f.taskID)
	input.Filename = "archive.t%r" // junk extension degrades to none
	att, err = f.svc.Upload(context.Background(), adminActor, input)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if strings.Contains(att.StoredName, ".") {
		t.Errorf("unsafe extension must be dropped, got %q", att.StoredName)
	}
}

func TestAttachmentService_Upload_MetadataFailureCleansBlob(t *testing.T) {
	f := newAttachmentFixture(t)
	f.attachments.createErr = errors.New("insert failed")

	if _, err := f.svc.Upload(context.Background(), adminActor, uploadInput(f.taskID)); err == nil {
		t.Fatal("expected upload to fail")
	}
	if len(f.blobs.blobs) != 0 {
		t.Error("orphaned blob must be removed when the metadata insert fails")
	}
}

func TestAttachmentService_ListByTask(t *testing.T) {
	f := newAttachmentFixture(t)
	_, _ = f.svc.Upload(context.Background(), adminActor, uploadInput(f.taskID))

	atts, err := f.svc.ListByTask(context.Background(), userActor, f.taskID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(atts) != 1 {
		t.Errorf("expected 1 attachment, got %d", len(atts))
	}

	if _, err := f.svc.ListByTask(context.Background(), authz.Anonymous, f.taskID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous list: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.svc.ListByTask(context.Background(), userActor, "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("unknown task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestAttachmentService_Download(t *testing.T) {
	f := newAttachmentFixture(t)
	att, _ := f.svc.Upload(context.Background(), adminActor, uploadInput(f.taskID))

	got, body, err := f.svc.Download(context.Background(), userActor, att.ID)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	defer body.Close()
	if got.OriginalName != "отчёт.pdf" {
		t.Errorf("metadata: %+v", got)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "%PDF-1.7 данные" {
		t.Errorf("content round trip: %q", data)
	}

	if _, _, err := f.svc.Download(context.Background(), authz.Anonymous, att.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous download: expected ErrUnauthenticated, got %v", err)
	}
	if _, _, err := f.svc.Download(context.Background(), userActor, "missing"); !errors.Is(err, domain.ErrAttachmentNotFound) {
		t.Errorf("unknown id: expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestAttachmentService_Delete(t *testing.T) {
	f := newAttachmentFixture(t)
	att, _ := f.svc.Upload(context.Background(), adminActor, uploadInput(f.taskID))

	// A plain user who did not upload it may not delete it.
	if err := f.svc.Delete(context.Background(), userActor, att.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign user: expected ErrForbidden, got %v", err)
	}

	if err := f.svc.Delete(context.Background(), adminActor, att.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := f.blobs.blobs[att.StoredName]; ok {
		t.Error("blob must be removed with the attachment")
	}
	if err := f.svc.Delete(context.Background(), adminActor, att.ID); !errors.Is(err, domain.ErrAttachmentNotFound) {
		t.Errorf("second delete: expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestAttachmentService_Delete_UploaderOwnsIt(t *testing.T) {
	f := newAttachmentFixture(t)
	att, _ := f.attachments.Create(context.Background(), &domain.Attachment{
		TaskID:     f.taskID,
		StoredName: "blob-u1.bin",
		UploaderID: "u1",
	})
	f.blobs.blobs["blob-u1.bin"] = []byte("data")

	if err := f.svc.Delete(context.Background(), userActor, att.ID); err != nil {
		t.Errorf("uploader must delete their own attachment: %v", err)
	}
}
