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
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

const collectionTasks = "tasks"

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	AuthorID    string             `bson:"author_id"`
	ExecutorID  string             `bson:"executor_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (mt mongoTask) toDomain() domain.Task {
	var due *time.Time
	if mt.DueDate != nil {
		d := mt.DueDate.UTC()
		due = &d
	}
	return domain.Task{
		ID:          mt.ID.Hex(),
		Title:       mt.Title,
		Description: mt.Description,
		Status:      domain.TaskStatus(mt.Status),
		Priority:    domain.TaskPriority(mt.Priority),
		DueDate:     due,
		AuthorID:    mt.AuthorID,
		ExecutorID:  mt.ExecutorID,
		CreatedAt:   mt.CreatedAt.UTC(),
		UpdatedAt:   mt.UpdatedAt.UTC(),
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoTask{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		AuthorID:    task.AuthorID,
		ExecutorID:  task.ExecutorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	created := doc.toDomain()
	return &created, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoTask
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	task := mt.toDomain()
	return &task, nil
}

// List returns one page newest first plus the total row count under the same
// filter, so pagination metadata stays consistent with the page itself.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]domain.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := listQuery(filter)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Page-1) * int64(filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	var tasks []domain.Task
	for cur.Next(ctx) {
		var mt mongoTask
		if err := cur.Decode(&mt); err != nil {
			return nil, 0, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, mt.toDomain())
	}
	return tasks, total, cur.Err()
}

func listQuery(filter ports.TaskFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.AuthorID != "" {
		query["author_id"] = filter.AuthorID
	}
	if filter.ExecutorID != "" {
		query["executor_id"] = filter.ExecutorID
	}
	if filter.DueBefore != nil || filter.DueAfter != nil {
		due := bson.M{}
		if filter.DueBefore != nil {
			due["$lte"] = *filter.DueBefore
		}
		if filter.DueAfter != nil {
			due["$gte"] = *filter.DueAfter
		}
		query["due_date"] = due
	}
	return query
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch ports.TaskPatch) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	set := bson.M{"updated_at": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.DueDate != nil {
		set["due_date"] = *patch.DueDate
	}
	if patch.ExecutorID != nil {
		set["executor_id"] = *patch.ExecutorID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoTask
	err = r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	task := mt.toDomain()
	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *TaskRepository) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int64, error) {
	counts, err := r.countByField(ctx, "$status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	result := make(map[domain.TaskStatus]int64, len(counts))
	for k, v := range counts {
		result[domain.TaskStatus(k)] = v
	}
	return result, nil
}

func (r *TaskRepository) CountByPriority(ctx context.Context) (map[domain.TaskPriority]int64, error) {
	counts, err := r.countByField(ctx, "$priority")
	if err != nil {
		return nil, fmt.Errorf("count by priority: %w", err)
	}
	result := make(map[domain.TaskPriority]int64, len(counts))
	for k, v := range counts {
		result[domain.TaskPriority(k)] = v
	}
	return result, nil
}

func (r *TaskRepository) countByField(ctx context.Context, field string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, cur.Err()
}

// EnsureIndexes creates the filter and sort indexes on the tasks collection.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "executor_id", Value: 1}}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
