package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/session"
)

// sessionPrefix is the Redis key prefix for login sessions.
const sessionPrefix = "session:"

// sessionRecord is the JSON stored per session. The token itself is not
// stored; the key is derived from its digest.
type sessionRecord struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore implements session.Store on Redis.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore returns a Redis-backed session store.
func NewSessionStore(c *Cache) *SessionStore {
	return &SessionStore{cache: c}
}

func sessionKey(token string) string {
	return sessionPrefix + auth.QuickHash(token)
}

// Save stores s until its expiry.
func (s *SessionStore) Save(ctx context.Context, sess *model.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if sess.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	data, err := json.Marshal(sessionRecord{
		ID:        sess.ID,
		AccountID: sess.AccountID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.cache.client.Set(ctx, sessionKey(sess.Token), data, ttl).Err()
}

// Get returns the session for token or session.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.cache.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupted entry - treat as missing
		return nil, session.ErrNotFound
	}

	return &model.Session{
		ID:        rec.ID,
		Token:     token,
		AccountID: rec.AccountID,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Delete removes the session for token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.client.Del(ctx, sessionKey(token)).Err()
}
