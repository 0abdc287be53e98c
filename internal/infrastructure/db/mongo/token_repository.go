package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

const collectionTokens = "auth_tokens"

// TokenRepository persists bearer tokens keyed by the token value itself.
// A TTL index sweeps expired rows in the background; the service layer still
// checks expiry on every lookup, so the sweep is an optimization only.
type TokenRepository struct {
	col *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{col: db.Collection(collectionTokens)}
}

type mongoToken struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	IssuedAt  time.Time `bson:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (r *TokenRepository) Insert(ctx context.Context, token *domain.AuthToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoToken{
		Token:     token.Token,
		UserID:    token.UserID,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// Find returns the token row; an unknown token is ErrUnauthenticated so the
// caller never learns whether the value ever existed.
func (r *TokenRepository) Find(ctx context.Context, token string) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoToken
	if err := r.col.FindOne(ctx, bson.M{"_id": token}).Decode(&mt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.AuthToken{
		Token:     mt.Token,
		UserID:    mt.UserID,
		IssuedAt:  mt.IssuedAt.UTC(),
		ExpiresAt: mt.ExpiresAt.UTC(),
	}, nil
}

func (r *TokenRepository) Delete(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": token})
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the TTL sweep index and the user_id lookup index.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
