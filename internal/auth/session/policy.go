package session

import (
	"sort"
	"time"
)

// EnforceMaxSessions splits sessions into the ones to keep and the ones
// to evict so that at most limit remain. Eviction order is strictly
// oldest-by-LastActiveAt first; there is no pinning and no per-device
// exemption. A session created in the same operation is the newest and
// therefore never evicts itself.
//
// The input order does not matter. The caller revokes the evicted
// sessions in the authoritative store and drops them from the cache.
func EnforceMaxSessions(sessions []Session, limit int) (kept, evicted []Session) {
	if limit <= 0 || len(sessions) <= limit {
		return sessions, nil
	}

	sorted := make([]Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastActiveAt.Before(sorted[j].LastActiveAt)
	})

	over := len(sorted) - limit
	return sorted[over:], sorted[:over]
}

// CleanupOldSessions drops cache entries inactive beyond maxAge.
// The authoritative store relies on storage-level expiry of revoked
// rows instead of a scan; this only tidies the account's rolling list.
func CleanupOldSessions(entries []CacheEntry, maxAge time.Duration, now time.Time) []CacheEntry {
	cutoff := now.Add(-maxAge)

	out := entries[:0:0]
	for _, e := range entries {
		if e.LastActiveAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// capCacheEntries bounds the rolling list, dropping oldest-by-LastActiveAt
// first.
func capCacheEntries(entries []CacheEntry, limit int) []CacheEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastActiveAt.After(entries[j].LastActiveAt)
	})
	return entries[:limit]
}
