package session

import (
	"context"
	"net"
	"time"
)

// AccountStatus is the persisted moderation state of an account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// AccountProfile is the slice of the account record this subsystem
// consumes: credentials, moderation/lock state, and the signals the risk
// heuristic needs. The account repository is an external collaborator
// and is specified only at this boundary.
type AccountProfile struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string

	Status         AccountStatus
	SuspendedUntil *time.Time
	LockedUntil    *time.Time

	TrustedDevices []TrustedDevice
	LoginHistory   []LoginEvent

	CreatedAt time.Time
}

// AccountDirectory is the user-account repository boundary.
//
// Lookups return ErrAccountNotFound when nothing matches. Lockout
// policy (thresholds, durations) lives behind RecordLoginFailure; the
// facade only consumes the resulting LockedUntil.
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (AccountProfile, error)
	FindByID(ctx context.Context, id string) (AccountProfile, error)

	// RecordLoginFailure bumps the failed-login counter and returns the
	// lock expiry if the account just crossed a lockout threshold.
	RecordLoginFailure(ctx context.Context, userID string, now time.Time) (*time.Time, error)

	// ResetLoginFailures clears lockout bookkeeping after a successful login.
	ResetLoginFailures(ctx context.Context, userID string) error

	// AppendLoginEvent records a login attempt into the history, capped
	// at limit entries (oldest dropped first).
	AppendLoginEvent(ctx context.Context, userID string, ev LoginEvent, limit int) error
}

// GeoLocator resolves an IP address to a coarse location. Lookups must
// be time-bounded by the caller; failure downgrades to an unknown
// location, never to a request failure.
type GeoLocator interface {
	Locate(ctx context.Context, ip net.IP) (Location, error)
}

// NoopGeoLocator always reports an unknown location.
type NoopGeoLocator struct{}

func (NoopGeoLocator) Locate(_ context.Context, _ net.IP) (Location, error) {
	return Location{}, nil
}

// LoginAlert is the payload for a new-device/suspicious login notification.
type LoginAlert struct {
	AccountID   string
	Email       string
	DisplayName string

	At       time.Time
	Device   Device
	IP       string
	Location Location

	NewDevice  bool
	Suspicious bool

	// DisavowToken lets the recipient revoke all sessions in one step
	// ("this wasn't me"). Empty when challenge issuance failed.
	DisavowToken string
}

// AlertSender delivers login alerts. Dispatch is time-bounded and its
// failure never alters the login response.
type AlertSender interface {
	SendLoginAlert(ctx context.Context, alert LoginAlert) error
}

// NoopAlertSender drops alerts.
type NoopAlertSender struct{}

func (NoopAlertSender) SendLoginAlert(_ context.Context, _ LoginAlert) error { return nil }

// ChallengeIssuer mints one-shot, TTL-bounded challenges for the
// alternate credential paths (currently the alert disavow link).
type ChallengeIssuer interface {
	Issue(ctx context.Context, userID, purpose string, ttl time.Duration) (id, secret string, err error)
}

// NoopChallengeIssuer issues nothing; alerts go out without a disavow link.
type NoopChallengeIssuer struct{}

func (NoopChallengeIssuer) Issue(_ context.Context, _, _ string, _ time.Duration) (string, string, error) {
	return "", "", nil
}

// TransportCloser force-closes live transports (WebSocket connections)
// bound to revoked sessions. An empty sessionIDs list means all of the
// user's transports.
type TransportCloser interface {
	CloseSessions(userID string, sessionIDs ...string)
}

// NoopTransportCloser ignores close requests.
type NoopTransportCloser struct{}

func (NoopTransportCloser) CloseSessions(_ string, _ ...string) {}
