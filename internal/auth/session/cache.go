package session

import (
	"context"
	"time"
)

// CacheBackend is the persistence surface for the rolling session list
// embedded in the account record. The account store implements it.
type CacheBackend interface {
	RecentSessions(ctx context.Context, userID string) ([]CacheEntry, error)
	SaveRecentSessions(ctx context.Context, userID string, entries []CacheEntry) error
}

// AccountCache maintains the denormalized per-account rolling list of
// recent sessions.
//
// It exists so read-heavy UI paths ("your devices") avoid a query
// against the authoritative store, and as a migration-era fallback.
// It never performs authorization checks, and callers treat every write
// here as best-effort.
type AccountCache struct {
	backend    CacheBackend
	max        int
	staleAfter time.Duration
}

// NewAccountCache builds the rolling cache over the given backend.
func NewAccountCache(backend CacheBackend, maxEntries int, staleAfter time.Duration) *AccountCache {
	return &AccountCache{backend: backend, max: maxEntries, staleAfter: staleAfter}
}

// Append upserts a snapshot into the account's rolling list. Stale
// entries are pruned and the size cap is enforced synchronously before
// persisting, so the stored list never exceeds the configured maximum.
func (c *AccountCache) Append(ctx context.Context, userID string, entry CacheEntry, now time.Time) error {
	entries, err := c.backend.RecentSessions(ctx, userID)
	if err != nil {
		return err
	}

	// Upsert by session id: rotation and activity touches refresh the
	// existing entry instead of duplicating it.
	replaced := false
	for i := range entries {
		if entries[i].SessionID == entry.SessionID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	entries = CleanupOldSessions(entries, c.staleAfter, now)
	entries = capCacheEntries(entries, c.max)

	return c.backend.SaveRecentSessions(ctx, userID, entries)
}

// Remove drops one session from the rolling list (logout).
func (c *AccountCache) Remove(ctx context.Context, userID, sessionID string) error {
	entries, err := c.backend.RecentSessions(ctx, userID)
	if err != nil {
		return err
	}

	out := entries[:0:0]
	for _, e := range entries {
		if e.SessionID != sessionID {
			out = append(out, e)
		}
	}
	if len(out) == len(entries) {
		return nil
	}
	return c.backend.SaveRecentSessions(ctx, userID, out)
}

// PruneStale drops entries inactive beyond the configured max age,
// independent of explicit revocation.
func (c *AccountCache) PruneStale(ctx context.Context, userID string, now time.Time) error {
	entries, err := c.backend.RecentSessions(ctx, userID)
	if err != nil {
		return err
	}
	pruned := CleanupOldSessions(entries, c.staleAfter, now)
	if len(pruned) == len(entries) {
		return nil
	}
	return c.backend.SaveRecentSessions(ctx, userID, pruned)
}

// Clear empties the rolling list (logout everywhere).
func (c *AccountCache) Clear(ctx context.Context, userID string) error {
	return c.backend.SaveRecentSessions(ctx, userID, nil)
}

// List returns the cached entries. Fallback read path only; callers
// must prefer the authoritative store.
func (c *AccountCache) List(ctx context.Context, userID string) ([]CacheEntry, error) {
	return c.backend.RecentSessions(ctx, userID)
}
