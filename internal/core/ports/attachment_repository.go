package ports

import (
	"context"
	"io"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// AttachmentRepository persists attachment metadata. File bytes live in a
// BlobStore keyed by the server-generated stored name.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error)
	FindByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByTask cascades a task deletion and returns the stored names of
	// the removed rows so the caller can clean up blobs.
	DeleteByTask(ctx context.Context, taskID string) ([]string, error)
}

// BlobStore reads, writes and removes attachment bytes. Storage mechanics
// (disk layout, durability) are a collaborator concern behind this boundary.
type BlobStore interface {
	Save(ctx context.Context, storedName string, r io.Reader) (int64, error)
	// Open returns the stored bytes; the caller closes the reader.
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	Remove(ctx context.Context, storedName string) error
}
