package session

import (
	"context"
	"time"
)

// CreateInput carries everything needed to create an authoritative
// session row. Secret is the raw refresh token; only its digest is
// persisted.
type CreateInput struct {
	SessionID string
	UserID    string
	Secret    string
	Expiry    time.Time
	Device    Device
	IPAddress string
	Location  Location
}

// RotateInput carries a rotation request. PresentedSecret is the
// plaintext the caller presented; it is only consulted when the row is
// in the SecretLegacyUnhashed state, where it becomes the grace-window
// secret so rotation stays non-disruptive even for unmigrated rows.
type RotateInput struct {
	SessionID       string
	UserID          string
	NewSecret       string
	PresentedSecret string
	NewExpiry       time.Time
	GraceUntil      time.Time
}

// Store abstracts authoritative persistence for session state.
//
// Implementations must apply Rotate as a single logical unit per
// session id (per-row atomicity is sufficient; no cross-record
// coordination is required). Two racing rotations presenting the same
// still-valid secret may both succeed, each installing a different
// current secret; the loser's pair dies on its next refresh. This is a
// documented, accepted limitation, not a bug to lock away.
type Store interface {
	// Create inserts a new session row with a hashed secret and
	// IsActive=true. Returns ErrDuplicateSession on an id collision.
	Create(ctx context.Context, now time.Time, in CreateInput) (Session, error)

	// Rotate shifts the current secret digest into the grace slot and
	// installs the new one. Returns ErrSessionNotFound when no active
	// row matches the (SessionID, UserID) pair.
	Rotate(ctx context.Context, now time.Time, in RotateInput) (Session, error)

	// Revoke marks one session revoked. Idempotent.
	Revoke(ctx context.Context, now time.Time, sessionID, userID, reason string) error

	// RevokeAllForUser revokes every active session for a user and
	// returns how many were revoked.
	RevokeAllForUser(ctx context.Context, now time.Time, userID, reason string) (int64, error)

	// FindBySessionID loads one session row.
	FindBySessionID(ctx context.Context, sessionID string) (Session, error)

	// FindActiveByUser lists the user's non-revoked sessions.
	FindActiveByUser(ctx context.Context, userID string) ([]Session, error)

	// Touch updates LastActiveAt for a session (best-effort bookkeeping).
	Touch(ctx context.Context, now time.Time, sessionID string) error
}
