package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MovieRepo interface {
	Insert(ctx context.Context, movie *domain.Movie) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Movie, error)
	SearchByTitle(ctx context.Context, query string, limit int64) ([]domain.Movie, error)
	Latest(ctx context.Context, limit int64) ([]domain.Movie, error)
	Trending(ctx context.Context, limit int64) ([]domain.Movie, error)
	ByLanguage(ctx context.Context, language string, limit int64) ([]domain.Movie, error)
	ByGenre(ctx context.Context, genre string, limit int64) ([]domain.Movie, error)
	Related(ctx context.Context, movie *domain.Movie, limit int64) ([]domain.Movie, error)
	Count(ctx context.Context) (int64, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}

type movieRepo struct {
	col *mongo.Collection
}

func NewMovieRepo(m *storage.Mongo) MovieRepo {
	return &movieRepo{col: m.Collection(storage.MoviesCollection)}
}

// movieDoc carries legacy field names written by earlier iterations
// of the uploader alongside the canonical schema.
type movieDoc struct {
	domain.Movie      `bson:",inline"`
	LuluLink          string `bson:"lulu_link,omitempty"`
	LuluStreamLink    string `bson:"lulu_stream_link,omitempty"`
	HTLink            string `bson:"ht_link,omitempty"`
	HTFileSharingLink string `bson:"htfilesharing_link,omitempty"`
	PosterFileID      string `bson:"poster_file_id,omitempty"`
}

func (d *movieDoc) normalize() domain.Movie {
	m := d.Movie
	if m.WatchLink == "" {
		if d.LuluStreamLink != "" {
			m.WatchLink = d.LuluStreamLink
		} else {
			m.WatchLink = d.LuluLink
		}
	}
	if m.DownloadLink == "" {
		if d.HTFileSharingLink != "" {
			m.DownloadLink = d.HTFileSharingLink
		} else {
			m.DownloadLink = d.HTLink
		}
	}
	if m.PosterRef == "" {
		m.PosterRef = d.PosterFileID
	}
	return m
}

func (r *movieRepo) Insert(ctx context.Context, movie *domain.Movie) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, movie)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *movieRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *movieRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc movieDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	m := doc.normalize()
	return &m, nil
}

func (r *movieRepo) SearchByTitle(ctx context.Context, query string, limit int64) ([]domain.Movie, error) {
	filter := bson.M{"title": bson.M{
		"$regex":   regexp.QuoteMeta(query),
		"$options": "i",
	}}
	return r.find(ctx, filter, nil, limit)
}

func (r *movieRepo) Latest(ctx context.Context, limit int64) ([]domain.Movie, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "_id", Value: -1}}, limit)
}

func (r *movieRepo) Trending(ctx context.Context, limit int64) ([]domain.Movie, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "views", Value: -1}}, limit)
}

func (r *movieRepo) ByLanguage(ctx context.Context, language string, limit int64) ([]domain.Movie, error) {
	return r.find(ctx, bson.M{"language": language}, bson.D{{Key: "_id", Value: -1}}, limit)
}

func (r *movieRepo) ByGenre(ctx context.Context, genre string, limit int64) ([]domain.Movie, error) {
	return r.find(ctx, bson.M{"genres": genre}, bson.D{{Key: "_id", Value: -1}}, limit)
}

func (r *movieRepo) Related(ctx context.Context, movie *domain.Movie, limit int64) ([]domain.Movie, error) {
	filter := bson.M{
		"_id": bson.M{"$ne": movie.ID},
		"$or": []bson.M{
			{"language": movie.Language},
			{"genres": bson.M{"$in": movie.Genres}},
		},
	}
	return r.find(ctx, filter, nil, limit)
}

func (r *movieRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *movieRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

func (r *movieRepo) find(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetLimit(limit)
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var movies []domain.Movie
	for cur.Next(ctx) {
		var doc movieDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		movies = append(movies, doc.normalize())
	}
	return movies, cur.Err()
}
