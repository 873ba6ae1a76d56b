package session

import (
	"context"
	"sync"
	"time"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
)

// MemoryStore keeps sessions in process memory.
// Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

// Save stores a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[auth.QuickHash(s.Token)] = *s
	return nil
}

// Get returns the session for token.
func (m *MemoryStore) Get(ctx context.Context, token string) (*model.Session, error) {
	key := auth.QuickHash(token)

	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()

	if !ok || s.IsExpired(m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete removes the session for token.
func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, auth.QuickHash(token))
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
