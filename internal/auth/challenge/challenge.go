// Package challenge stores one-shot, TTL-bounded challenges used by the
// alternate credential paths (alert disavow links). Challenges are
// keyed by a random id, hold only a hash of their secret, and expire
// automatically.
package challenge

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/token"
)

// ErrNotFound is returned when a challenge is missing, expired, already
// consumed, or its secret does not match. Callers get no finer signal.
var ErrNotFound = errors.New("challenge: not found")

const secretBytes = 32

type record struct {
	UserID     string    `json:"userId"`
	Purpose    string    `json:"purpose"`
	SecretHash string    `json:"secretHash"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// Store persists challenges in buntdb with per-key TTLs.
type Store struct {
	db *buntdb.DB
}

// Open opens the challenge store at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("challenge: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Issue mints a new challenge for userID and purpose, valid for ttl.
// The returned secret is shown to the user exactly once; only its hash
// is stored.
func (s *Store) Issue(_ context.Context, userID, purpose string, ttl time.Duration) (string, string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("challenge: generate secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)
	id := uuid.NewString()

	rec := record{
		UserID:     userID,
		Purpose:    purpose,
		SecretHash: token.HashSHA256Hex(secret),
		IssuedAt:   time.Now().UTC(),
	}
	serialized, err := json.Marshal(rec)
	if err != nil {
		return "", "", fmt.Errorf("challenge: serialize: %w", err)
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		opts := &buntdb.SetOptions{Expires: true, TTL: ttl}
		_, _, err := tx.Set("challenge:"+id, string(serialized), opts)
		return err
	})
	if err != nil {
		return "", "", fmt.Errorf("challenge: store: %w", err)
	}
	return id, secret, nil
}

// Consume validates and deletes the challenge in a single transaction.
// A challenge can be consumed at most once; every failure mode maps to
// ErrNotFound.
func (s *Store) Consume(_ context.Context, id, secret, purpose string) (string, error) {
	var userID string

	err := s.db.Update(func(tx *buntdb.Tx) error {
		raw, err := tx.Get("challenge:" + id)
		if err != nil {
			return err
		}

		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return fmt.Errorf("challenge: deserialize: %w", err)
		}
		if rec.Purpose != purpose {
			return buntdb.ErrNotFound
		}
		presented := token.HashSHA256Hex(secret)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(rec.SecretHash)) != 1 {
			return buntdb.ErrNotFound
		}

		if _, err := tx.Delete("challenge:" + id); err != nil {
			return err
		}
		userID = rec.UserID
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
