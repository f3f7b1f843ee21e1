// Package shortlink wraps the third-party URL shortening provider.
// Providers in this space expose a bare GET API returning the short
// URL as text; the call has no side effects, so it is retried once.
package shortlink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxAttempts = 2

type Client struct {
	apiURL string
	apiKey string
	hc     *http.Client
}

func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		hc:     &http.Client{Timeout: timeout},
	}
}

// Shorten returns the provider's short URL for longURL. Callers fall
// back to longURL on error, so the gate never blocks on the provider.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	if c.apiURL == "" {
		return "", fmt.Errorf("shortlink provider not configured")
	}

	q := url.Values{}
	q.Set("api", c.apiKey)
	q.Set("url", longURL)
	q.Set("format", "text")
	endpoint := c.apiURL + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		short, err := c.call(ctx, endpoint)
		if err == nil {
			return short, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shortlink provider status %d", resp.StatusCode)
	}

	short := strings.TrimSpace(string(body))
	if short == "" || !strings.HasPrefix(short, "http") {
		return "", fmt.Errorf("shortlink provider returned %q", short)
	}
	return short, nil
}
