// Package verification implements the access gate: per-user daily
// free-view counters, one-shot verification tokens, and the shortlink
// challenge flow that unlocks a verified window.
package verification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/harikv/moviegate/internal/clock"
	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/pkg/config"
	"github.com/harikv/moviegate/pkg/events"
	"github.com/harikv/moviegate/pkg/logger"
)

// Shortener wraps the third-party URL shortening call. A failed or
// empty result makes the caller fall back to the long URL.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type Service struct {
	access  mongodb.AccessRepo
	tokens  mongodb.TokenRepo
	short   Shortener
	bus     events.Publisher
	cfg     config.VerificationConfig
	baseURL string
	now     func() time.Time
}

func New(
	access mongodb.AccessRepo,
	tokens mongodb.TokenRepo,
	short Shortener,
	bus events.Publisher,
	cfg config.VerificationConfig,
	baseURL string,
) *Service {
	return &Service{
		access:  access,
		tokens:  tokens,
		short:   short,
		bus:     bus,
		cfg:     cfg,
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// CheckAccess decides whether the user may proceed and consumes one
// free view when the decision comes from the free tier. Verified
// windows bypass the counter entirely; at the limit the check is
// mutation-free so repeated polling cannot inflate the count. On
// storage failure the error propagates and callers must deny.
func (s *Service) CheckAccess(ctx context.Context, userID string) (domain.Decision, error) {
	if !s.cfg.Enabled {
		return domain.Decision{Allowed: true, Limit: s.cfg.FreeLimit}, nil
	}

	now := s.now().UTC()
	windowStart := clock.WindowStart(now, s.cfg.ResetHour)

	rec, err := s.access.Find(ctx, userID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: find access record: %v", domain.ErrStorage, err)
	}

	if rec == nil {
		if err := s.access.ResetWindow(ctx, userID, windowStart); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: create access record: %v", domain.ErrStorage, err)
		}
		rec = &domain.AccessRecord{UserID: userID, LastReset: windowStart}
	}

	// An unexpired verified window bypasses the counter outright,
	// even when the daily window rolled underneath it.
	if rec.Verified && rec.VerifyExpiry != nil && now.Before(*rec.VerifyExpiry) {
		return domain.Decision{Allowed: true, Count: rec.Count, Limit: s.cfg.FreeLimit}, nil
	}

	if clock.IsStale(rec.LastReset, now, s.cfg.ResetHour) {
		if err := s.access.ResetWindow(ctx, userID, windowStart); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: reset window: %v", domain.ErrStorage, err)
		}
		rec = &domain.AccessRecord{UserID: userID, LastReset: windowStart}
	} else if rec.Verified {
		// Verified window over; quota resumes from the preserved count.
		if err := s.access.ClearVerified(ctx, userID); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: clear verified: %v", domain.ErrStorage, err)
		}
		rec.Verified = false
	}

	if rec.Count < s.cfg.FreeLimit {
		if err := s.access.IncrementCount(ctx, userID); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: increment count: %v", domain.ErrStorage, err)
		}
		return domain.Decision{Allowed: true, Count: rec.Count + 1, Limit: s.cfg.FreeLimit}, nil
	}

	return domain.Decision{NeedVerification: true, Count: rec.Count, Limit: s.cfg.FreeLimit}, nil
}

// Challenge mints a one-shot token and returns the shortlink the user
// must complete. Falls back to the raw verification URL when the
// shortener is down.
func (s *Service) Challenge(ctx context.Context, userID string) (string, error) {
	now := s.now().UTC()

	token, err := NewToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	rec := &domain.VerifyToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: store token: %v", domain.ErrStorage, err)
	}

	longURL := fmt.Sprintf("%s/verified?uid=%s&token=%s", s.baseURL, url.QueryEscape(userID), token)

	shortURL, err := s.short.Shorten(ctx, longURL)
	if err != nil || shortURL == "" {
		if err != nil {
			logger.WarnContext(ctx, "shortlink provider failed, using long URL", "error", err)
		}
		shortURL = longURL
	}

	_ = s.bus.Publish(ctx, events.VerificationChallenged, events.VerificationChallengedEvent{
		UserID:       userID,
		ChallengedAt: now,
	})

	return shortURL, nil
}

// Redeem consumes the token and unlocks a verified window. Unknown
// and expired tokens both come back as ErrInvalidToken; the caller
// learns nothing about which it was.
func (s *Service) Redeem(ctx context.Context, userID, token string) error {
	now := s.now().UTC()

	rec, err := s.tokens.Consume(ctx, userID, token)
	if err != nil {
		return fmt.Errorf("%w: consume token: %v", domain.ErrStorage, err)
	}
	if rec == nil || now.After(rec.ExpiresAt) {
		return domain.ErrInvalidToken
	}

	if err := s.MarkVerified(ctx, userID); err != nil {
		return err
	}

	// Outstanding tokens for the user are dead weight once verified.
	if _, err := s.tokens.DeleteForUser(ctx, userID); err != nil {
		logger.WarnContext(ctx, "failed to purge redeemed user tokens", "error", err)
	}

	_ = s.bus.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     userID,
		VerifiedAt: now,
		ExpiresAt:  now.Add(s.cfg.Period),
	})

	return nil
}

// MarkVerified opens a verified window of the configured period.
func (s *Service) MarkVerified(ctx context.Context, userID string) error {
	now := s.now().UTC()
	windowStart := clock.WindowStart(now, s.cfg.ResetHour)

	if err := s.access.MarkVerified(ctx, userID, now, now.Add(s.cfg.Period), windowStart); err != nil {
		return fmt.Errorf("%w: mark verified: %v", domain.ErrStorage, err)
	}
	return nil
}
