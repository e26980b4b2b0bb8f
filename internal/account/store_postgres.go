// Package account implements the user-account repository collaborator
// consumed by the session subsystem: profile/moderation/lock state
// lookups, failed-login lockout bookkeeping, the capped login history,
// and the embedded rolling list of recent sessions.
//
// Signup, profile editing, and moderation actions live elsewhere; this
// package only covers the surface the authentication core needs.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

// PostgresStore implements session.AccountDirectory and
// session.CacheBackend against pryde.accounts.
type PostgresStore struct {
	pool    *pgxpool.Pool
	lockout LockoutConfig
}

// NewPostgresStore creates a Postgres-backed account repository.
func NewPostgresStore(pool *pgxpool.Pool, lockout LockoutConfig) *PostgresStore {
	return &PostgresStore{pool: pool, lockout: lockout}
}

const accountColumns = `
	id, email, display_name, password_hash,
	status, suspended_until, locked_until,
	trusted_devices, login_history, created_at`

// FindByEmail loads an account by email (case-insensitive).
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (session.AccountProfile, error) {
	return s.findWhere(ctx, `lower(email) = lower($1)`, email)
}

// FindByID loads an account by id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (session.AccountProfile, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s *PostgresStore) findWhere(ctx context.Context, where string, arg any) (session.AccountProfile, error) {
	var (
		p           session.AccountProfile
		status      string
		trustedJSON []byte
		historyJSON []byte
	)

	err := s.pool.QueryRow(ctx, `
		SELECT`+accountColumns+`
		FROM pryde.accounts
		WHERE `+where, arg).Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PasswordHash,
		&status,
		&p.SuspendedUntil,
		&p.LockedUntil,
		&trustedJSON,
		&historyJSON,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.AccountProfile{}, session.ErrAccountNotFound
	}
	if err != nil {
		return session.AccountProfile{}, err
	}

	p.Status = session.AccountStatus(status)
	if len(trustedJSON) > 0 {
		if err := json.Unmarshal(trustedJSON, &p.TrustedDevices); err != nil {
			return session.AccountProfile{}, err
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &p.LoginHistory); err != nil {
			return session.AccountProfile{}, err
		}
	}
	return p, nil
}

// RecordLoginFailure bumps the failure counter and applies the lockout
// policy in one statement.
func (s *PostgresStore) RecordLoginFailure(ctx context.Context, userID string, now time.Time) (*time.Time, error) {
	var lockedUntil *time.Time

	err := s.pool.QueryRow(ctx, `
		UPDATE pryde.accounts
		SET failed_logins = failed_logins + 1,
		    locked_until = CASE
		        WHEN failed_logins + 1 >= $2 THEN $3
		        ELSE locked_until
		    END
		WHERE id = $1
		RETURNING locked_until
	`, userID, s.lockout.Threshold, now.Add(s.lockout.Duration)).Scan(&lockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return lockedUntil, nil
}

// ResetLoginFailures clears lockout bookkeeping after a successful login.
func (s *PostgresStore) ResetLoginFailures(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pryde.accounts
		SET failed_logins = 0, locked_until = NULL
		WHERE id = $1
	`, userID)
	return err
}

// AppendLoginEvent records a login attempt into the capped history.
// The row lock keeps concurrent appends from dropping each other.
func (s *PostgresStore) AppendLoginEvent(ctx context.Context, userID string, ev session.LoginEvent, limit int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var historyJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT login_history FROM pryde.accounts WHERE id = $1 FOR UPDATE
	`, userID).Scan(&historyJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	var history []session.LoginEvent
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &history); err != nil {
			return err
		}
	}

	history = appendCapped(history, ev, limit)

	out, err := json.Marshal(history)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE pryde.accounts SET login_history = $2 WHERE id = $1
	`, userID, out); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// appendCapped keeps the newest entries, dropping from the front.
func appendCapped(history []session.LoginEvent, ev session.LoginEvent, limit int) []session.LoginEvent {
	history = append(history, ev)
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// RecentSessions reads the embedded rolling session list.
func (s *PostgresStore) RecentSessions(ctx context.Context, userID string) ([]session.CacheEntry, error) {
	var raw []byte

	err := s.pool.QueryRow(ctx, `
		SELECT recent_sessions FROM pryde.accounts WHERE id = $1
	`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, nil
	}
	var entries []session.CacheEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveRecentSessions replaces the embedded rolling session list.
func (s *PostgresStore) SaveRecentSessions(ctx context.Context, userID string, entries []session.CacheEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE pryde.accounts SET recent_sessions = $2 WHERE id = $1
	`, userID, raw)
	return err
}
