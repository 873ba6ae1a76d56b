package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ArticlesCreated    uint64
	ArticlesUpdated    uint64
	ArticlesDeleted    uint64
	AccountsRegistered uint64
	Logouts            uint64
	LoginAttempts      map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	articlesCreated    uint64
	articlesUpdated    uint64
	articlesDeleted    uint64
	accountsRegistered uint64
	logouts            uint64

	mu            sync.Mutex
	loginAttempts map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{loginAttempts: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	attempts := make(map[string]uint64, len(m.loginAttempts))
	for status, n := range m.loginAttempts {
		attempts[status] = n
	}
	m.mu.Unlock()

	return Snapshot{
		ArticlesCreated:    atomic.LoadUint64(&m.articlesCreated),
		ArticlesUpdated:    atomic.LoadUint64(&m.articlesUpdated),
		ArticlesDeleted:    atomic.LoadUint64(&m.articlesDeleted),
		AccountsRegistered: atomic.LoadUint64(&m.accountsRegistered),
		Logouts:            atomic.LoadUint64(&m.logouts),
		LoginAttempts:      attempts,
	}
}

// IncArticleCreated increments article created counter.
func (m *InMemoryRecorder) IncArticleCreated() {
	atomic.AddUint64(&m.articlesCreated, 1)
}

// IncArticleUpdated increments article updated counter.
func (m *InMemoryRecorder) IncArticleUpdated() {
	atomic.AddUint64(&m.articlesUpdated, 1)
}

// IncArticleDeleted increments article deleted counter.
func (m *InMemoryRecorder) IncArticleDeleted() {
	atomic.AddUint64(&m.articlesDeleted, 1)
}

// IncAccountRegistered increments account registered counter.
func (m *InMemoryRecorder) IncAccountRegistered() {
	atomic.AddUint64(&m.accountsRegistered, 1)
}

// IncLoginAttempt increments the login attempt counter for status.
func (m *InMemoryRecorder) IncLoginAttempt(status string) {
	m.mu.Lock()
	m.loginAttempts[status]++
	m.mu.Unlock()
}

// IncLogout increments logout counter.
func (m *InMemoryRecorder) IncLogout() {
	atomic.AddUint64(&m.logouts, 1)
}
