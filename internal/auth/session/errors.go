package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned for any credential failure.
	// Callers must surface it with a uniform message; it never reveals
	// which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountBanned is returned when the account is permanently banned.
	ErrAccountBanned = errors.New("account banned")

	// ErrAccountSuspended is returned when the account is under an active suspension.
	ErrAccountSuspended = errors.New("account suspended")

	// ErrAccountLocked is returned when too many failed logins locked the account.
	// Use AccountLockedError to carry retry metadata.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountNotFound is returned by AccountDirectory lookups that match nothing.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidToken is returned when a token fails signature, expiry, or kind checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRefreshRejected is returned when a presented refresh token cannot be honored.
	// It forces re-authentication and deliberately carries no further detail.
	ErrRefreshRejected = errors.New("refresh rejected")

	// ErrSessionNotFound is internal; transports surface it as ErrRefreshRejected.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateSession indicates a session id collision on create.
	// Session ids are 256-bit random values, so this points at an
	// identifier-generation defect and is logged at alert level.
	ErrDuplicateSession = errors.New("duplicate session id")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// AccountLockedError carries retry metadata for lockout responses.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e AccountLockedError) Error() string {
	if e.RetryAfter <= 0 {
		return ErrAccountLocked.Error()
	}
	return fmt.Sprintf("%s: retry after %s", ErrAccountLocked.Error(), e.RetryAfter)
}

func (e AccountLockedError) Unwrap() error { return ErrAccountLocked }
