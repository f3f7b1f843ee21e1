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

type AccessRepo interface {
	Find(ctx context.Context, userID string) (*domain.AccessRecord, error)
	ResetWindow(ctx context.Context, userID string, windowStart time.Time) error
	IncrementCount(ctx context.Context, userID string) error
	ClearVerified(ctx context.Context, userID string) error
	MarkVerified(ctx context.Context, userID string, verifiedAt, expiresAt, windowStart time.Time) error
}

type accessRepo struct {
	col *mongo.Collection
}

func NewAccessRepo(m *storage.Mongo) AccessRepo {
	return &accessRepo{col: m.Collection(storage.AccessCollection)}
}

func (r *accessRepo) Find(ctx context.Context, userID string) (*domain.AccessRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.AccessRecord
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ResetWindow moves the record into the given window with a zeroed
// counter. Upserts, so it also creates first-time records.
func (r *accessRepo) ResetWindow(ctx context.Context, userID string, windowStart time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":   bson.M{"count": 0, "verified": false, "last_reset": windowStart},
			"$unset": bson.M{"verify_expiry": ""},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// IncrementCount consumes one free view via an atomic $inc so
// concurrent checks cannot lose updates.
func (r *accessRepo) IncrementCount(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{"count": 1}},
	)
	return err
}

func (r *accessRepo) ClearVerified(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":   bson.M{"verified": false},
			"$unset": bson.M{"verify_expiry": ""},
		},
	)
	return err
}

// MarkVerified flips the verified flag and re-synchronizes last_reset
// to the current window so a staleness check cannot immediately undo
// a fresh verification. Idempotent; calling again re-extends expiry.
func (r *accessRepo) MarkVerified(ctx context.Context, userID string, verifiedAt, expiresAt, windowStart time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"verified":      true,
			"verify_expiry": expiresAt,
			"last_verified": verifiedAt,
			"last_reset":    windowStart,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
