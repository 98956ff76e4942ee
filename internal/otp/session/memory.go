package session

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
)

type entry struct {
	id        Identity
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	clock clockx.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryStore(clock clockx.Clock, ttl time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockx.System{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{clock: clock, ttl: ttl, entries: make(map[string]entry)}
}

func (m *MemoryStore) Issue(_ context.Context, id Identity) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.entries[token] = entry{id: id, expiresAt: m.clock.Now().Add(m.ttl)}
	m.mu.Unlock()
	return token, nil
}

func (m *MemoryStore) Resolve(_ context.Context, token string) (Identity, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok {
		return Identity{}, false, nil
	}

	if m.clock.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Only drop the entry we looked at; the token may have been reissued.
		if cur, ok := m.entries[token]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, token)
		}
		m.mu.Unlock()
		return Identity{}, false, nil
	}
	return e.id, true, nil
}

func (m *MemoryStore) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.entries, token)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
