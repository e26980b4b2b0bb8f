package session

import (
	"errors"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AccessSecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	cfg.RefreshSecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	return cfg
}

func newTestCodec(t *testing.T) (*Codec, Config) {
	t.Helper()

	cfg := testConfig(t)
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c, cfg
}

func TestMintPairRoundTrip(t *testing.T) {
	c, cfg := newTestCodec(t)
	now := time.Now().UTC()

	pair, err := c.MintPair("user-1", "", now)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}
	if pair.SessionID == "" {
		t.Fatal("MintPair did not generate a session id")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if !pair.AccessExp.Equal(now.Add(cfg.AccessTokenTTL)) {
		t.Errorf("AccessExp = %v, want %v", pair.AccessExp, now.Add(cfg.AccessTokenTTL))
	}

	access, err := c.VerifyAccess(pair.AccessToken, now)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if access.UserID != "user-1" || access.SessionID != pair.SessionID {
		t.Errorf("access claims = %+v", access)
	}
	if access.Kind != KindAccess {
		t.Errorf("access kind = %q", access.Kind)
	}

	refresh, err := c.VerifyRefresh(pair.RefreshToken, now)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if refresh.UserID != "user-1" || refresh.SessionID != pair.SessionID {
		t.Errorf("refresh claims = %+v", refresh)
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	c, _ := newTestCodec(t)
	now := time.Now().UTC()

	pair, err := c.MintPair("user-1", "sess-1", now)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	// Refresh tokens are signed with a different key AND carry a
	// different kind claim; either alone must be enough to reject.
	if _, err := c.VerifyAccess(pair.RefreshToken, now); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAccess(refresh token) err = %v, want ErrInvalidToken", err)
	}
	if _, err := c.VerifyRefresh(pair.AccessToken, now); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyRefresh(access token) err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	c, cfg := newTestCodec(t)
	now := time.Now().UTC()

	pair, err := c.MintPair("user-1", "sess-1", now)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	late := now.Add(cfg.AccessTokenTTL + cfg.ClockSkew + time.Minute)
	if _, err := c.VerifyAccess(pair.AccessToken, late); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired VerifyAccess err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	c1, _ := newTestCodec(t)
	c2, _ := newTestCodec(t)
	now := time.Now().UTC()

	pair, err := c1.MintPair("user-1", "sess-1", now)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}
	if _, err := c2.VerifyAccess(pair.AccessToken, now); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign-key VerifyAccess err = %v, want ErrInvalidToken", err)
	}
}

func TestNewCodecRejectsSharedKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSecretKeyHex = cfg.AccessSecretKeyHex

	if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Errorf("NewCodec with shared keys err = %v, want ErrConfig", err)
	}
}
