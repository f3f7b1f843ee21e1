package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// TelegramUIDCookie binds a browser to a Telegram identity once
	// the user completes the verification callback.
	TelegramUIDCookie = "tg_uid"
	// VisitorCookie is the anonymous browser identity.
	VisitorCookie = "visitor_id"
)

// VisitorIdentity guarantees every browser carries a stable visitor
// cookie so the access ledger keys on something better than an IP.
func VisitorIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(VisitorCookie); err != nil {
			id := uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(365 * 24 * time.Hour),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			r.AddCookie(&http.Cookie{Name: VisitorCookie, Value: id})
		}
		next.ServeHTTP(w, r)
	})
}

// VisitorID resolves the ledger identity for a web request: Telegram
// uid cookie, then visitor cookie, then client IP as the last resort.
func VisitorID(r *http.Request) string {
	if c, err := r.Cookie(TelegramUIDCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if c, err := r.Cookie(VisitorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ClientIP(r)
}
