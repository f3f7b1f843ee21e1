package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/harikv/moviegate/internal/http/response"
	"github.com/redis/go-redis/v9"
)

// Fixed-window counter: first INCR in a window arms the expiry, any
// count over the limit is rejected.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RateLimiter is a Redis-backed fixed-window limiter keyed by client
// IP. It is protective, not authoritative: Redis being down fails
// open, the access ledger stays the source of truth.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	script *redis.Script
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RateLimiter {
	if client == nil {
		return nil
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.Context(), ClientIP(r)) {
			response.RateLimit(w, "Too many requests. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	if rl == nil || rl.client == nil || rl.limit <= 0 || key == "" {
		return true
	}

	redisKey := rl.prefix + ":" + key

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := rl.script.Run(ctx, rl.client, []string{redisKey}, rl.window.Milliseconds(), rl.limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}

// ClientIP extracts the real client IP from the request.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
