package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

// MemoryStore is an in-memory account repository for tests and DB-less
// dev mode. It implements session.AccountDirectory and
// session.CacheBackend.
type MemoryStore struct {
	lockout LockoutConfig

	mu       sync.Mutex
	profiles map[string]session.AccountProfile
	failures map[string]int
	recent   map[string][]session.CacheEntry
}

// NewMemoryStore creates an empty in-memory account repository.
func NewMemoryStore(lockout LockoutConfig) *MemoryStore {
	return &MemoryStore{
		lockout:  lockout,
		profiles: make(map[string]session.AccountProfile),
		failures: make(map[string]int),
		recent:   make(map[string][]session.CacheEntry),
	}
}

// Put seeds or replaces an account profile.
func (m *MemoryStore) Put(p session.AccountProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// FindByEmail loads an account by email (case-insensitive).
func (m *MemoryStore) FindByEmail(_ context.Context, email string) (session.AccountProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return session.AccountProfile{}, session.ErrAccountNotFound
}

// FindByID loads an account by id.
func (m *MemoryStore) FindByID(_ context.Context, id string) (session.AccountProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return session.AccountProfile{}, session.ErrAccountNotFound
	}
	return p, nil
}

// RecordLoginFailure bumps the failure counter and applies the lockout policy.
func (m *MemoryStore) RecordLoginFailure(_ context.Context, userID string, now time.Time) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, session.ErrAccountNotFound
	}

	m.failures[userID]++
	if m.failures[userID] >= m.lockout.Threshold {
		until := now.Add(m.lockout.Duration)
		p.LockedUntil = &until
		m.profiles[userID] = p
	}
	return p.LockedUntil, nil
}

// ResetLoginFailures clears lockout bookkeeping.
func (m *MemoryStore) ResetLoginFailures(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return session.ErrAccountNotFound
	}
	m.failures[userID] = 0
	p.LockedUntil = nil
	m.profiles[userID] = p
	return nil
}

// AppendLoginEvent records a login attempt into the capped history.
func (m *MemoryStore) AppendLoginEvent(_ context.Context, userID string, ev session.LoginEvent, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return session.ErrAccountNotFound
	}
	p.LoginHistory = appendCapped(p.LoginHistory, ev, limit)
	m.profiles[userID] = p
	return nil
}

// RecentSessions reads the rolling session list.
func (m *MemoryStore) RecentSessions(_ context.Context, userID string) ([]session.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.recent[userID]
	out := make([]session.CacheEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// SaveRecentSessions replaces the rolling session list.
func (m *MemoryStore) SaveRecentSessions(_ context.Context, userID string, entries []session.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := make([]session.CacheEntry, len(entries))
	copy(saved, entries)
	m.recent[userID] = saved
	return nil
}
