package verification

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns a 256-bit crypto-random hex token. Hex keeps it
// URL-safe for the shortlink redirect query string.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
