package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

const collectionAttachments = "attachments"

type AttachmentRepository struct {
	col *mongo.Collection
}

func NewAttachmentRepository(db *mongo.Database) *AttachmentRepository {
	return &AttachmentRepository{col: db.Collection(collectionAttachments)}
}

type mongoAttachment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	TaskID       string             `bson:"task_id"`
	OriginalName string             `bson:"original_name"`
	StoredName   string             `bson:"stored_name"`
	ContentType  string             `bson:"content_type"`
	SizeBytes    int64              `bson:"size_bytes"`
	UploaderID   string             `bson:"uploader_id"`
	UploadedAt   time.Time          `bson:"uploaded_at"`
}

func (ma mongoAttachment) toDomain() domain.Attachment {
	return domain.Attachment{
		ID:           ma.ID.Hex(),
		TaskID:       ma.TaskID,
		OriginalName: ma.OriginalName,
		StoredName:   ma.StoredName,
		ContentType:  ma.ContentType,
		SizeBytes:    ma.SizeBytes,
		UploaderID:   ma.UploaderID,
		UploadedAt:   ma.UploadedAt.UTC(),
	}
}

func (r *AttachmentRepository) Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAttachment{
		TaskID:       att.TaskID,
		OriginalName: att.OriginalName,
		StoredName:   att.StoredName,
		ContentType:  att.ContentType,
		SizeBytes:    att.SizeBytes,
		UploaderID:   att.UploaderID,
		UploadedAt:   att.UploadedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	created := doc.toDomain()
	return &created, nil
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*domain.Attachment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAttachmentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAttachment
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&ma); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	att := ma.toDomain()
	return &att, nil
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(
		ctx,
		bson.M{"task_id": taskID},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer cur.Close(ctx)

	var atts []domain.Attachment
	for cur.Next(ctx) {
		var ma mongoAttachment
		if err := cur.Decode(&ma); err != nil {
			return nil, fmt.Errorf("decode attachment: %w", err)
		}
		atts = append(atts, ma.toDomain())
	}
	return atts, cur.Err()
}

func (r *AttachmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete attachment: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteByTask removes all of the task's attachment rows and returns their
// stored names so the caller can clean up the blobs afterwards.
func (r *AttachmentRepository) DeleteByTask(ctx context.Context, taskID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(
		ctx,
		bson.M{"task_id": taskID},
		options.Find().SetProjection(bson.M{"stored_name": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("list task attachments: %w", err)
	}

	var names []string
	for cur.Next(ctx) {
		var row struct {
			StoredName string `bson:"stored_name"`
		}
		if err := cur.Decode(&row); err != nil {
			cur.Close(ctx)
			return nil, fmt.Errorf("decode attachment: %w", err)
		}
		names = append(names, row.StoredName)
	}
	if err := cur.Err(); err != nil {
		cur.Close(ctx)
		return nil, err
	}
	cur.Close(ctx)

	if _, err := r.col.DeleteMany(ctx, bson.M{"task_id": taskID}); err != nil {
		return nil, fmt.Errorf("delete task attachments: %w", err)
	}
	return names, nil
}

// EnsureIndexes creates the task_id listing index.
func (r *AttachmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "task_id", Value: 1}},
	})
	return err
}
