package mongodb

import (
	"context"
	"time"

	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo persists upload-wizard state per admin, so a half-done
// /addmovie flow survives restarts.
type SessionRepo interface {
	Get(ctx context.Context, adminID int64) (*domain.UploadSession, error)
	Put(ctx context.Context, session *domain.UploadSession) error
	Delete(ctx context.Context, adminID int64) error
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(m *storage.Mongo) SessionRepo {
	return &sessionRepo{col: m.Collection(storage.SessionsCollection)}
}

func (r *sessionRepo) Get(ctx context.Context, adminID int64) (*domain.UploadSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.UploadSession
	err := r.col.FindOne(ctx, bson.M{"admin_id": adminID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Put(ctx context.Context, session *domain.UploadSession) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session.UpdatedAt = time.Now().UTC()
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"admin_id": session.AdminID},
		session,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, adminID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"admin_id": adminID})
	return err
}

func (r *sessionRepo) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
