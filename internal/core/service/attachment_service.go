package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// maxStoredExtLen bounds the extension carried over from the client name so
// a hostile filename cannot inflate the stored name.
const maxStoredExtLen = 16

// AttachmentService implements the attachment use cases. Files are stored
// under server-generated names; the client-supplied filename is kept as
// display metadata only and never touches the filesystem path.
type AttachmentService struct {
	attachments ports.AttachmentRepository
	tasks       ports.TaskRepository
	blobs       ports.BlobStore
	now         func() time.Time
	log         zerolog.Logger
}

// AttachmentOption configures an AttachmentService.
type AttachmentOption func(*AttachmentService)

// WithAttachmentClock overrides the time source (used by tests).
func WithAttachmentClock(now func() time.Time) AttachmentOption {
	return func(s *AttachmentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAttachmentService builds an AttachmentService.
func NewAttachmentService(
	attachments ports.AttachmentRepository,
	tasks ports.TaskRepository,
	blobs ports.BlobStore,
	log zerolog.Logger,
	opts ...AttachmentOption,
) *AttachmentService {
	s := &AttachmentService{
		attachments: attachments,
		tasks:       tasks,
		blobs:       blobs,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores the file bytes and records the attachment metadata. Only
// admin and super_admin may upload.
func (s *AttachmentService) Upload(ctx context.Context, actor authz.Actor, input ports.UploadInput) (*domain.Attachment, error) {
	if err := guard(actor, authz.ActionAttachmentCreate, authz.Resource{}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Filename)
	if name == "" {
		return nil, domain.NewValidationError([]string{"filename is required"})
	}
	if input.Body == nil {
		return nil, domain.NewValidationError([]string{"file content is required"})
	}
	if _, err := s.tasks.FindByID(ctx, input.TaskID); err != nil {
		return nil, err
	}

	storedName := uuid.NewString() + storedExt(name)
	size, err := s.blobs.Save(ctx, storedName, input.Body)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	created, err := s.attachments.Create(ctx, &domain.Attachment{
		TaskID:       input.TaskID,
		OriginalName: name,
		StoredName:   storedName,
		ContentType:  input.ContentType,
		SizeBytes:    size,
		UploaderID:   actor.ID,
		UploadedAt:   s.now().UTC(),
	})
	if err != nil {
		// Metadata insert failed after the bytes landed; drop the blob so it
		// does not leak.
		if rmErr := s.blobs.Remove(ctx, storedName); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("stored_name", storedName).Msg("failed to remove orphaned blob")
		}
		return nil, fmt.Errorf("record attachment: %w", err)
	}

	s.log.Info().Str("attachment_id", created.ID).Str("task_id", input.TaskID).Int64("size", size).Msg("attachment uploaded")
	return created, nil
}

// Download returns the attachment metadata together with a reader over its
// bytes. Requires authentication, same as listing; the caller closes the
// reader.
func (s *AttachmentService) Download(ctx context.Context, actor authz.Actor, id string) (*domain.Attachment, io.ReadCloser, error) {
	if err := guard(actor, authz.ActionAttachmentRead, authz.Resource{}); err != nil {
		return nil, nil, err
	}
	att, err := s.attachments.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.blobs.Open(ctx, att.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment blob: %w", err)
	}
	return att, body, nil
}

// ListByTask returns the task's attachment metadata. Requires authentication.
func (s *AttachmentService) ListByTask(ctx context.Context, actor authz.Actor, taskID string) ([]domain.Attachment, error) {
	if err := guard(actor, authz.ActionAttachmentRead, authz.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTask(ctx, taskID)
}

// Delete removes the attachment row and then its blob. The uploader may
// delete their own attachment; admin and super_admin may delete any.
func (s *AttachmentService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	att, err := s.attachments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := guard(actor, authz.ActionAttachmentDelete, authz.Owned(att.UploaderID)); err != nil {
		return err
	}

	existed, err := s.attachments.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if !existed {
		return domain.ErrAttachmentNotFound
	}
	if err := s.blobs.Remove(ctx, att.StoredName); err != nil {
		s.log.Warn().Err(err).Str("stored_name", att.StoredName).Msg("failed to remove attachment blob")
	}

	s.log.Info().Str("attachment_id", id).Str("actor_id", actor.ID).Msg("attachment deleted")
	return nil
}

// storedExt extracts a safe extension from the client filename. Anything
// unusual degrades to no extension.
func storedExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxStoredExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
