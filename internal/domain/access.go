package domain

import (
	"errors"
	"time"
)

// AccessRecord tracks one user's free daily views and verified state.
// Count is only meaningful relative to LastReset; reads must
// reconcile staleness against the current window start first.
type AccessRecord struct {
	UserID       string     `bson:"user_id"`
	Count        int        `bson:"count"`
	Verified     bool       `bson:"verified"`
	VerifyExpiry *time.Time `bson:"verify_expiry,omitempty"`
	LastReset    time.Time  `bson:"last_reset"`
	LastVerified *time.Time `bson:"last_verified,omitempty"`
}

// Decision is the outcome of an access check. Quota exhaustion is a
// value, not an error.
type Decision struct {
	Allowed          bool `json:"allowed"`
	NeedVerification bool `json:"need_verification"`
	Count            int  `json:"count"`
	Limit            int  `json:"limit"`
}

// VerifyToken is a one-shot credential proving the user completed the
// shortlink flow. Redemption deletes it; expired tokens never redeem.
type VerifyToken struct {
	UserID    string    `bson:"user_id"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

var (
	// ErrStorage wraps data-store failures. CheckAccess callers must
	// treat it as deny.
	ErrStorage = errors.New("storage unavailable")

	// ErrInvalidToken covers both unknown and expired tokens; the two
	// are deliberately not distinguished to callers.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrMovieNotFound = errors.New("movie not found")
)
