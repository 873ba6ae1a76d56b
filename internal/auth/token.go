package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionTokenBytes is the number of random bytes in a session token.
const SessionTokenBytes = 32

// NewSessionToken returns a random, URL-safe session token.
func NewSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSessionID returns a sortable public handle for a session.
// It carries no secret and may appear in logs.
func NewSessionID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// ValidSessionToken reports whether token has the shape produced by NewSessionToken.
func ValidSessionToken(token string) bool {
	if len(token) != base64.RawURLEncoding.EncodedLen(SessionTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil
}
