package challenge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIssueAndConsume(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, secret, err := s.Issue(ctx, "user-1", "session_disavow", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if id == "" || secret == "" {
		t.Fatalf("Issue returned empty id/secret: %q %q", id, secret)
	}

	userID, err := s.Consume(ctx, id, secret, "session_disavow")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Consume userID = %q, want user-1", userID)
	}

	// Second consumption must fail: challenges are one-shot.
	if _, err := s.Consume(ctx, id, secret, "session_disavow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Consume err = %v, want ErrNotFound", err)
	}
}

func TestConsumeRejections(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, secret, err := s.Issue(ctx, "user-1", "session_disavow", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := s.Consume(ctx, id, "wrong-secret", "session_disavow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong secret err = %v, want ErrNotFound", err)
	}
	if _, err := s.Consume(ctx, id, secret, "password_reset"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong purpose err = %v, want ErrNotFound", err)
	}
	if _, err := s.Consume(ctx, "missing-id", secret, "session_disavow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}

	// The failed attempts must not have consumed the challenge.
	if _, err := s.Consume(ctx, id, secret, "session_disavow"); err != nil {
		t.Errorf("valid Consume after rejections: %v", err)
	}
}

func TestConsumeExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, secret, err := s.Issue(ctx, "user-1", "session_disavow", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := s.Consume(ctx, id, secret, "session_disavow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired Consume err = %v, want ErrNotFound", err)
	}
}
