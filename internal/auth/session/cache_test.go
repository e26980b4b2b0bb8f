package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memoryBackend is a test CacheBackend.
type memoryBackend struct {
	mu      sync.Mutex
	lists   map[string][]CacheEntry
	failAll bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{lists: make(map[string][]CacheEntry)}
}

func (b *memoryBackend) RecentSessions(_ context.Context, userID string) ([]CacheEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return nil, errors.New("backend down")
	}
	out := make([]CacheEntry, len(b.lists[userID]))
	copy(out, b.lists[userID])
	return out, nil
}

func (b *memoryBackend) SaveRecentSessions(_ context.Context, userID string, entries []CacheEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return errors.New("backend down")
	}
	saved := make([]CacheEntry, len(entries))
	copy(saved, entries)
	b.lists[userID] = saved
	return nil
}

func TestAccountCacheAppendUpserts(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	cache := NewAccountCache(backend, 5, 30*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	entry := CacheEntry{SessionID: "s1", IPAddress: "203.0.113.10", LastActiveAt: now}
	if err := cache.Append(ctx, "user-1", entry, now); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Re-append with fresh activity; no duplicate.
	entry.LastActiveAt = now.Add(time.Hour)
	if err := cache.Append(ctx, "user-1", entry, now.Add(time.Hour)); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	got, err := cache.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (upsert, not duplicate)", len(got))
	}
	if !got[0].LastActiveAt.Equal(now.Add(time.Hour)) {
		t.Errorf("LastActiveAt not refreshed: %v", got[0].LastActiveAt)
	}
}

func TestAccountCacheAppendEnforcesCapAndStaleness(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	cache := NewAccountCache(backend, 3, 30*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// One entry is long stale and must be pruned on the next write.
	backend.lists["user-1"] = []CacheEntry{
		{SessionID: "stale", LastActiveAt: now.Add(-60 * 24 * time.Hour)},
		{SessionID: "s1", LastActiveAt: now.Add(-3 * time.Hour)},
		{SessionID: "s2", LastActiveAt: now.Add(-2 * time.Hour)},
		{SessionID: "s3", LastActiveAt: now.Add(-1 * time.Hour)},
	}

	if err := cache.Append(ctx, "user-1", CacheEntry{SessionID: "s4", LastActiveAt: now}, now); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := cache.List(ctx, "user-1")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (cap enforced)", len(got))
	}
	for _, e := range got {
		if e.SessionID == "stale" {
			t.Error("stale entry survived")
		}
		if e.SessionID == "s1" {
			t.Error("oldest entry survived the cap")
		}
	}
}

func TestAccountCacheRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	cache := NewAccountCache(backend, 5, 30*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"s1", "s2"} {
		if err := cache.Append(ctx, "user-1", CacheEntry{SessionID: id, LastActiveAt: now}, now); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	if err := cache.Remove(ctx, "user-1", "s1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, _ := cache.List(ctx, "user-1")
	if len(got) != 1 || got[0].SessionID != "s2" {
		t.Errorf("after Remove: %+v", got)
	}

	if err := cache.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = cache.List(ctx, "user-1")
	if len(got) != 0 {
		t.Errorf("after Clear: %+v", got)
	}
}
