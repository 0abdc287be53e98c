package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository persists accounts in the users collection. Usage counts and
// activity rankings read the tasks and comments collections directly.
type UserRepository struct {
	col      *mongo.Collection
	tasks    *mongo.Collection
	comments *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		tasks:    db.Collection(collectionTasks),
		comments: db.Collection(collectionComments),
	}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (mu mongoUser) toDomain() domain.User {
	return domain.User{
		ID:           mu.ID.Hex(),
		Email:        mu.Email,
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		Role:         domain.Role(mu.Role),
		CreatedAt:    mu.CreatedAt.UTC(),
	}
}

// Create inserts the user. A duplicate email violates the unique index and
// surfaces as domain.ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := mongoUser{
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    createdAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	created := doc.toDomain()
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user := mu.toDomain()
	return &user, nil
}

// FindByEmail matches the email exactly as stored; lookups are case sensitive.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	user := mu.toDomain()
	return &user, nil
}

// FindByIDs resolves users in bulk; malformed and unknown ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]domain.User, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		result[mu.ID.Hex()] = mu.toDomain()
	}
	return result, cur.Err()
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	return users, cur.Err()
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": string(role)}})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	err = r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailExists
		}
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	user := mu.toDomain()
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UsageCounts counts the tasks and comments still authored by the user.
func (r *UserRepository) UsageCounts(ctx context.Context, id string) (ports.UsageCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tasks, err := r.tasks.CountDocuments(ctx, bson.M{"author_id": id})
	if err != nil {
		return ports.UsageCounts{}, fmt.Errorf("count authored tasks: %w", err)
	}
	comments, err := r.comments.CountDocuments(ctx, bson.M{"author_id": id})
	if err != nil {
		return ports.UsageCounts{}, fmt.Errorf("count authored comments: %w", err)
	}
	return ports.UsageCounts{Tasks: tasks, Comments: comments}, nil
}

// ActiveUsers ranks users by authored tasks plus comments, descending, and
// returns the top limit entries. Ties break on username for a stable order.
func (r *UserRepository) ActiveUsers(ctx context.Context, limit int) ([]domain.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	taskCounts, err := countByAuthor(ctx, r.tasks)
	if err != nil {
		return nil, fmt.Errorf("count tasks by author: %w", err)
	}
	commentCounts, err := countByAuthor(ctx, r.comments)
	if err != nil {
		return nil, fmt.Errorf("count comments by author: %w", err)
	}

	ids := make([]string, 0, len(taskCounts)+len(commentCounts))
	seen := make(map[string]struct{})
	for id := range taskCounts {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range commentCounts {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}

	users, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.UserStats, 0, len(users))
	for id, user := range users {
		stats = append(stats, domain.UserStats{
			User:          user,
			TasksCount:    taskCounts[id],
			CommentsCount: commentCounts[id],
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		ti := stats[i].TasksCount + stats[i].CommentsCount
		tj := stats[j].TasksCount + stats[j].CommentsCount
		if ti != tj {
			return ti > tj
		}
		return stats[i].User.Username < stats[j].User.Username
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// countByAuthor groups a collection by author_id.
func countByAuthor(ctx context.Context, col *mongo.Collection) (map[string]int64, error) {
	cur, err := col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$author_id", "count": bson.M{"$sum": 1}}}},
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

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
