package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/token"
)

// MemoryStore is an in-memory Store used for tests and DB-less dev mode.
// Per-record atomicity is provided by a single mutex, which is stricter
// than the contract requires.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create inserts a new session row.
func (m *MemoryStore) Create(_ context.Context, now time.Time, in CreateInput) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[in.SessionID]; ok {
		return Session{}, ErrDuplicateSession
	}

	s := Session{
		ID:                  in.SessionID,
		UserID:              in.UserID,
		SecretState:         SecretHashed,
		CurrentSecretHash:   token.HashSecretHex(in.Secret),
		CurrentSecretExpiry: in.Expiry,
		Device:              in.Device,
		IPAddress:           in.IPAddress,
		Location:            in.Location,
		CreatedAt:           now,
		LastActiveAt:        now,
		IsActive:            true,
	}
	m.sessions[in.SessionID] = s
	return s, nil
}

// Rotate shifts current -> previous under the store lock.
func (m *MemoryStore) Rotate(_ context.Context, now time.Time, in RotateInput) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[in.SessionID]
	if !ok || s.UserID != in.UserID || !s.IsActive {
		return Session{}, ErrSessionNotFound
	}

	s = rotated(s, now, in)
	m.sessions[in.SessionID] = s
	return s, nil
}

// rotated applies the rotation state shift shared by store implementations.
func rotated(s Session, now time.Time, in RotateInput) Session {
	switch {
	case s.SecretState == SecretHashed && s.CurrentSecretHash != "":
		s.PreviousSecretHash = s.CurrentSecretHash
		s.PreviousSecretExpiry = in.GraceUntil
	case in.PresentedSecret != "":
		// Legacy row: no stored digest to shift. Hash the presented
		// plaintext so the grace window survives the migration.
		s.PreviousSecretHash = token.HashSecretHex(in.PresentedSecret)
		s.PreviousSecretExpiry = in.GraceUntil
	default:
		s.PreviousSecretHash = ""
		s.PreviousSecretExpiry = time.Time{}
	}

	s.SecretState = SecretHashed
	s.CurrentSecretHash = token.HashSecretHex(in.NewSecret)
	s.CurrentSecretExpiry = in.NewExpiry
	rotatedAt := now
	s.LastRotatedAt = &rotatedAt
	s.LastActiveAt = now
	return s
}

// Revoke marks one session revoked (idempotent).
func (m *MemoryStore) Revoke(_ context.Context, now time.Time, sessionID, userID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil
	}
	if s.RevokedAt == nil {
		revoked := now
		s.RevokedAt = &revoked
		s.IsActive = false
		m.sessions[sessionID] = s
	}
	return nil
}

// RevokeAllForUser revokes every active session for a user.
func (m *MemoryStore) RevokeAllForUser(_ context.Context, now time.Time, userID, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.UserID != userID || s.RevokedAt != nil {
			continue
		}
		revoked := now
		s.RevokedAt = &revoked
		s.IsActive = false
		m.sessions[id] = s
		n++
	}
	return n, nil
}

// FindBySessionID loads one session row.
func (m *MemoryStore) FindBySessionID(_ context.Context, sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// FindActiveByUser lists non-revoked sessions, most recently active first.
func (m *MemoryStore) FindActiveByUser(_ context.Context, userID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	return out, nil
}

// Touch updates LastActiveAt.
func (m *MemoryStore) Touch(_ context.Context, now time.Time, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastActiveAt = now
	m.sessions[sessionID] = s
	return nil
}

// Seed installs a session row verbatim. Test helper for legacy-state rows.
func (m *MemoryStore) Seed(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}
