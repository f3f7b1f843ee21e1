package mongodb

import (
	"context"
	"time"

	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TokenRepo interface {
	Create(ctx context.Context, token *domain.VerifyToken) error
	// Consume atomically removes the record matching (userID, token)
	// and returns it. At most one concurrent caller can win. Returns
	// (nil, nil) when there is no match.
	Consume(ctx context.Context, userID, token string) (*domain.VerifyToken, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepo struct {
	col *mongo.Collection
}

func NewTokenRepo(m *storage.Mongo) TokenRepo {
	return &tokenRepo{col: m.Collection(storage.TokensCollection)}
}

func (r *tokenRepo) Create(ctx context.Context, token *domain.VerifyToken) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.InsertOne(ctx, token)
	return err
}

func (r *tokenRepo) Consume(ctx context.Context, userID, token string) (*domain.VerifyToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.VerifyToken
	err := r.col.FindOneAndDelete(ctx, bson.M{"user_id": userID, "token": token}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *tokenRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
