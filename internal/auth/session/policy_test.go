package session

import (
	"testing"
	"time"
)

func sessionAt(id string, lastActive time.Time) Session {
	return Session{ID: id, UserID: "user-1", LastActiveAt: lastActive, IsActive: true}
}

func TestEnforceMaxSessionsEvictsOldest(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Deliberately unordered input.
	sessions := []Session{
		sessionAt("s4", base.Add(4*time.Hour)),
		sessionAt("s1", base.Add(1*time.Hour)),
		sessionAt("s7", base.Add(7*time.Hour)),
		sessionAt("s2", base.Add(2*time.Hour)),
		sessionAt("s6", base.Add(6*time.Hour)),
		sessionAt("s3", base.Add(3*time.Hour)),
		sessionAt("s5", base.Add(5*time.Hour)),
	}

	kept, evicted := EnforceMaxSessions(sessions, 5)
	if len(kept) != 5 || len(evicted) != 2 {
		t.Fatalf("kept=%d evicted=%d, want 5/2", len(kept), len(evicted))
	}

	if evicted[0].ID != "s1" || evicted[1].ID != "s2" {
		t.Errorf("evicted = [%s %s], want the two oldest [s1 s2]", evicted[0].ID, evicted[1].ID)
	}
	for _, s := range kept {
		if s.ID == "s1" || s.ID == "s2" {
			t.Errorf("session %s both kept and evicted", s.ID)
		}
	}
}

func TestEnforceMaxSessionsUnderLimit(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sessions := []Session{
		sessionAt("s1", base),
		sessionAt("s2", base.Add(time.Hour)),
	}

	kept, evicted := EnforceMaxSessions(sessions, 5)
	if len(kept) != 2 || evicted != nil {
		t.Errorf("kept=%d evicted=%v, want all kept", len(kept), evicted)
	}
}

func TestCleanupOldSessions(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := []CacheEntry{
		{SessionID: "fresh", LastActiveAt: now.Add(-time.Hour)},
		{SessionID: "stale", LastActiveAt: now.Add(-40 * 24 * time.Hour)},
		{SessionID: "edge", LastActiveAt: now.Add(-30 * 24 * time.Hour)},
	}

	out := CleanupOldSessions(entries, 30*24*time.Hour, now)
	if len(out) != 1 || out[0].SessionID != "fresh" {
		t.Errorf("CleanupOldSessions = %+v, want only fresh", out)
	}
}

func TestCapCacheEntries(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var entries []CacheEntry
	for i := 0; i < 8; i++ {
		entries = append(entries, CacheEntry{
			SessionID:    string(rune('a' + i)),
			LastActiveAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	out := capCacheEntries(entries, 5)
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	// Newest first, oldest three dropped.
	if out[0].SessionID != "h" {
		t.Errorf("out[0] = %s, want h", out[0].SessionID)
	}
	for _, e := range out {
		if e.SessionID == "a" || e.SessionID == "b" || e.SessionID == "c" {
			t.Errorf("oldest entry %s survived the cap", e.SessionID)
		}
	}
}
