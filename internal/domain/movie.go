package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movie is the canonical catalog document. Historical field-name
// drift (lulu_link / lulu_stream_link, ht_link / htfilesharing_link)
// is normalized to WatchLink / DownloadLink at the repository layer.
type Movie struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Year         int                `bson:"year" json:"year"`
	Language     string             `bson:"language,omitempty" json:"language,omitempty"`
	Genres       []string           `bson:"genres" json:"genres"`
	Quality      string             `bson:"quality" json:"quality"`
	Description  string             `bson:"description" json:"description"`
	PosterRef    string             `bson:"poster_ref,omitempty" json:"poster_ref,omitempty"`
	WatchLink    string             `bson:"watch_link" json:"watch_link"`
	DownloadLink string             `bson:"download_link" json:"download_link"`
	Views        int64              `bson:"views" json:"views"`
	AddedBy      int64              `bson:"added_by,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
