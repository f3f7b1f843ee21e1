package domain

import "time"

// Upload wizard steps, in order.
const (
	StepTitle        = "title"
	StepYear         = "year"
	StepGenres       = "genres"
	StepQuality      = "quality"
	StepWatchLink    = "watch_link"
	StepDownloadLink = "download_link"
	StepPoster       = "poster"
	StepDescription  = "description"
)

// UploadSession is the persisted state of an admin's /addmovie flow.
// Stored per admin so the wizard survives restarts.
type UploadSession struct {
	AdminID   int64     `bson:"admin_id"`
	Step      string    `bson:"step"`
	Draft     Movie     `bson:"draft"`
	UpdatedAt time.Time `bson:"updated_at"`
}
