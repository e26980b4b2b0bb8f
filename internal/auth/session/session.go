package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/token"
)

// SecretState tags how a session's refresh secret is persisted.
//
// SecretLegacyUnhashed marks rows created before hashing was introduced:
// they carry no stored digest and are migrated to SecretHashed in place
// on their next rotation, using the presented plaintext as the grace
// secret. The variant is explicit so the migration path stays
// type-visible and testable.
type SecretState string

const (
	// SecretHashed is the target policy: only a digest of the refresh secret is stored.
	SecretHashed SecretState = "hashed"
	// SecretLegacyUnhashed marks unmigrated rows with no stored digest.
	SecretLegacyUnhashed SecretState = "legacy_unhashed"
)

// Device describes the client device that owns a session.
type Device struct {
	Label       string `json:"label"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	Fingerprint string `json:"fingerprint"`
}

// Location is a coarse IP-derived location. Zero value means unknown.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Session is the authoritative record binding one authenticated
// device/browser instance to an account.
//
// Invariants:
//   - exactly one row per ID
//   - PreviousSecretHash is non-empty only while inside its grace window
//   - IsActive == false exactly when RevokedAt is set
type Session struct {
	ID     string
	UserID string

	SecretState          SecretState
	CurrentSecretHash    string
	CurrentSecretExpiry  time.Time
	PreviousSecretHash   string
	PreviousSecretExpiry time.Time
	LastRotatedAt        *time.Time

	Device    Device
	IPAddress string
	Location  Location

	CreatedAt    time.Time
	LastActiveAt time.Time
	RevokedAt    *time.Time
	IsActive     bool
}

// CacheEntry is the denormalized snapshot of a Session embedded in the
// account record's rolling list. It is never authoritative.
type CacheEntry struct {
	SessionID    string    `json:"session_id"`
	Device       Device    `json:"device"`
	IPAddress    string    `json:"ip_address"`
	Location     Location  `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Summary is the caller-facing view of an active session ("your devices").
type Summary struct {
	SessionID    string
	Device       Device
	IPAddress    string
	Location     Location
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Snapshot converts a Session into its cache representation.
func (s Session) Snapshot() CacheEntry {
	return CacheEntry{
		SessionID:    s.ID,
		Device:       s.Device,
		IPAddress:    s.IPAddress,
		Location:     s.Location,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
}

// Summary converts a Session into its caller-facing view.
func (s Session) Summary() Summary {
	return Summary{
		SessionID:    s.ID,
		Device:       s.Device,
		IPAddress:    s.IPAddress,
		Location:     s.Location,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
}

// VerifySecret reports whether presented is a currently acceptable
// refresh secret for s. This is the only path by which a refresh token
// is considered valid: it matches the current digest inside its expiry,
// or the previous digest while still inside the rotation grace window.
//
// Legacy rows store no digest; the codec has already bound the token to
// this session via signature and claims, so they are accepted here and
// backfilled on the next rotation.
func VerifySecret(s Session, presented string, now time.Time) bool {
	if !s.IsActive {
		return false
	}

	if s.SecretState == SecretLegacyUnhashed && s.CurrentSecretHash == "" {
		return true
	}

	h := token.HashSecretHex(presented)

	if s.CurrentSecretHash != "" && now.Before(s.CurrentSecretExpiry) &&
		hashEqual(h, s.CurrentSecretHash) {
		return true
	}
	if s.PreviousSecretHash != "" && now.Before(s.PreviousSecretExpiry) &&
		hashEqual(h, s.PreviousSecretHash) {
		return true
	}
	return false
}

func hashEqual(a, b string) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewSessionID returns an opaque random 256-bit identifier, URL-safe
// base64 without padding.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
