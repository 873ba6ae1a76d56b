// Package session manages browser login sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
)

// Session errors.
var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid session token")
)

// Store maps session tokens to sessions.
// Implementations key entries by auth.QuickHash(token), never the raw token.
type Store interface {
	Save(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// Manager creates, resolves and destroys sessions on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a Manager issuing sessions that live for ttl.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for account.
func (m *Manager) Create(ctx context.Context, account *model.Account) (*model.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	s := &model.Session{
		ID:        auth.NewSessionID(now),
		Token:     token,
		AccountID: account.ID,
		Email:     account.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return s, nil
}

// Lookup resolves token to a live session. Expired sessions are removed and
// reported as ErrNotFound.
func (m *Manager) Lookup(ctx context.Context, token string) (*model.Session, error) {
	if !auth.ValidSessionToken(token) {
		return nil, ErrInvalidToken
	}

	s, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.IsExpired(m.now()) {
		_ = m.store.Delete(ctx, token)
		return nil, ErrNotFound
	}

	return s, nil
}

// Destroy removes the session for token. Unknown tokens are ignored.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if !auth.ValidSessionToken(token) {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
