package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps states in process memory. States older than ttl are
// treated as absent and removed by Sweep.
type MemoryStore struct {
	states map[int64]State
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]State),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get gets the state for a user
func (m *MemoryStore) Get(_ context.Context, userID int64) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[userID]
	if !ok || m.expired(st) {
		return State{}, false, nil
	}
	return st, true, nil
}

// Set sets the state for a user
func (m *MemoryStore) Set(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st.UpdatedAt = m.now()
	m.states[userID] = st
	return nil
}

// Clear clears the state for a user
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
	return nil
}

// Sweep drops expired states and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, st := range m.states {
		if m.expired(st) {
			delete(m.states, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) expired(st State) bool {
	return m.ttl > 0 && m.now().Sub(st.UpdatedAt) > m.ttl
}
