package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/token"
)

const pgUniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL (pryde.sessions).
//
// Rotation locks the target row (SELECT ... FOR UPDATE) inside a
// transaction so the read-shift-write is a single logical unit per
// session id. Physical deletion of revoked rows is storage-level
// (revoked_at + retention, see db/schema.sql), not done here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const sessionColumns = `
	id, user_id, secret_state,
	current_secret_hash, current_secret_expires_at,
	previous_secret_hash, previous_secret_expires_at,
	last_rotated_at,
	device_label, browser, os, device_fingerprint,
	ip, city, region, country,
	created_at, last_active_at, revoked_at`

// Create inserts a new session row.
func (s *PostgresStore) Create(ctx context.Context, now time.Time, in CreateInput) (Session, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pryde.sessions (
			id, user_id, secret_state,
			current_secret_hash, current_secret_expires_at,
			device_label, browser, os, device_fingerprint,
			ip, city, region, country,
			created_at, last_active_at
		) VALUES (
			$1, $2, $3,
			$4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $14
		)
	`, in.SessionID, in.UserID, string(SecretHashed),
		token.HashSecretHex(in.Secret), in.Expiry,
		nullIfEmpty(in.Device.Label), nullIfEmpty(in.Device.Browser), nullIfEmpty(in.Device.OS), nullIfEmpty(in.Device.Fingerprint),
		nullIfEmpty(in.IPAddress), nullIfEmpty(in.Location.City), nullIfEmpty(in.Location.Region), nullIfEmpty(in.Location.Country),
		now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Session{}, ErrDuplicateSession
		}
		return Session{}, err
	}

	return s.FindBySessionID(ctx, in.SessionID)
}

// Rotate shifts the secret digests under a row lock.
func (s *PostgresStore) Rotate(ctx context.Context, now time.Time, in RotateInput) (Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row, err := scanSession(tx.QueryRow(ctx, `
		SELECT`+sessionColumns+`
		FROM pryde.sessions
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
		FOR UPDATE
	`, in.SessionID, in.UserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	next := rotated(row, now, in)

	_, err = tx.Exec(ctx, `
		UPDATE pryde.sessions
		SET
			secret_state = $2,
			current_secret_hash = $3,
			current_secret_expires_at = $4,
			previous_secret_hash = $5,
			previous_secret_expires_at = $6,
			last_rotated_at = $7,
			last_active_at = $7
		WHERE id = $1
	`, in.SessionID,
		string(next.SecretState), next.CurrentSecretHash, next.CurrentSecretExpiry,
		nullIfEmpty(next.PreviousSecretHash), nullIfZeroTime(next.PreviousSecretExpiry),
		now)
	if err != nil {
		return Session{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Session{}, err
	}
	return next, nil
}

// Revoke marks one session revoked (idempotent).
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, sessionID, userID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pryde.sessions
		SET revoked_at = COALESCE(revoked_at, $3),
		    revocation_reason = COALESCE(revocation_reason, $4)
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID, now, reason)
	return err
}

// RevokeAllForUser revokes all active sessions for a user.
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, now time.Time, userID, reason string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pryde.sessions
		SET revoked_at = $2,
		    revocation_reason = $3
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, now, reason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindBySessionID loads a session row by id.
func (s *PostgresStore) FindBySessionID(ctx context.Context, sessionID string) (Session, error) {
	row, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT`+sessionColumns+`
		FROM pryde.sessions
		WHERE id = $1
	`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return row, nil
}

// FindActiveByUser lists non-revoked sessions, most recently active first.
func (s *PostgresStore) FindActiveByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+sessionColumns+`
		FROM pryde.sessions
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY last_active_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Touch updates last_active_at for a session.
func (s *PostgresStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pryde.sessions
		SET last_active_at = $2
		WHERE id = $1
	`, sessionID, now)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var (
		sess                Session
		state               string
		currentHash         *string
		prevHash            *string
		prevExpiry          *time.Time
		label, browser, os  *string
		fingerprint         *string
		ip                  *string
		city, region, ctry  *string
	)

	err := r.Scan(
		&sess.ID,
		&sess.UserID,
		&state,
		&currentHash,
		&sess.CurrentSecretExpiry,
		&prevHash,
		&prevExpiry,
		&sess.LastRotatedAt,
		&label, &browser, &os, &fingerprint,
		&ip, &city, &region, &ctry,
		&sess.CreatedAt,
		&sess.LastActiveAt,
		&sess.RevokedAt,
	)
	if err != nil {
		return Session{}, err
	}

	sess.SecretState = SecretState(state)
	sess.CurrentSecretHash = deref(currentHash)
	sess.PreviousSecretHash = deref(prevHash)
	if prevExpiry != nil {
		sess.PreviousSecretExpiry = *prevExpiry
	}
	sess.Device = Device{
		Label:       deref(label),
		Browser:     deref(browser),
		OS:          deref(os),
		Fingerprint: deref(fingerprint),
	}
	sess.IPAddress = deref(ip)
	sess.Location = Location{City: deref(city), Region: deref(region), Country: deref(ctry)}
	sess.IsActive = sess.RevokedAt == nil

	return sess, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
