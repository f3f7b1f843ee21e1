package shortlink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShortenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api"); got != "key123" {
			t.Errorf("api key = %q, want key123", got)
		}
		if got := r.URL.Query().Get("url"); got != "https://example.com/verified?uid=u1&token=t" {
			t.Errorf("url = %q", got)
		}
		w.Write([]byte("https://sho.rt/abc\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key123", time.Second)
	short, err := c.Shorten(context.Background(), "https://example.com/verified?uid=u1&token=t")
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if short != "https://sho.rt/abc" {
		t.Errorf("short = %q", short)
	}
}

func TestShortenRetriesOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("https://sho.rt/xyz"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	short, err := c.Shorten(context.Background(), "https://example.com/x")
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if short != "https://sho.rt/xyz" {
		t.Errorf("short = %q", short)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestShortenGivesUpAfterRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	if _, err := c.Shorten(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestShortenRejectsGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("error: quota exceeded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	if _, err := c.Shorten(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected error for non-URL body")
	}
}

func TestShortenUnconfigured(t *testing.T) {
	c := NewClient("", "", time.Second)
	if _, err := c.Shorten(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected error when provider is unconfigured")
	}
}
