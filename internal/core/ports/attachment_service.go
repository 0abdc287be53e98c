package ports

import (
	"context"
	"io"

	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// UploadInput carries one file upload. Filename is the client-supplied name,
// treated strictly as display metadata.
type UploadInput struct {
	TaskID      string
	Filename    string
	ContentType string
	Body        io.Reader
}

// AttachmentService covers the attachment use cases.
type AttachmentService interface {
	Upload(ctx context.Context, actor authz.Actor, input UploadInput) (*domain.Attachment, error)
	ListByTask(ctx context.Context, actor authz.Actor, taskID string) ([]domain.Attachment, error)
	// Download returns the metadata and an open reader over the blob.
	Download(ctx context.Context, actor authz.Actor, id string) (*domain.Attachment, io.ReadCloser, error)
	Delete(ctx context.Context, actor authz.Actor, id string) error
}
