package verification

import (
	"context"
	"time"

	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/pkg/logger"
)

// Janitor lazily purges expired tokens and abandoned upload sessions.
// Redemption already rejects expired tokens, so the sweep is garbage
// collection, not correctness.
type Janitor struct {
	tokens   mongodb.TokenRepo
	sessions mongodb.SessionRepo
	interval time.Duration
}

func NewJanitor(tokens mongodb.TokenRepo, sessions mongodb.SessionRepo, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{tokens: tokens, sessions: sessions, interval: interval}
}

func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now().UTC()

	if n, err := j.tokens.DeleteExpired(ctx, now); err != nil {
		logger.WarnContext(ctx, "token sweep failed", "error", err)
	} else if n > 0 {
		logger.InfoContext(ctx, "purged expired verification tokens", "count", n)
	}

	if n, err := j.sessions.DeleteStale(ctx, now.Add(-24*time.Hour)); err != nil {
		logger.WarnContext(ctx, "session sweep failed", "error", err)
	} else if n > 0 {
		logger.InfoContext(ctx, "purged stale upload sessions", "count", n)
	}
}
