package session

import (
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func setTestKeys(t *testing.T) {
	t.Helper()
	t.Setenv("PRYDE_PASETO_ACCESS_KEY_HEX", paseto.NewV4AsymmetricSecretKey().ExportHex())
	t.Setenv("PRYDE_PASETO_REFRESH_KEY_HEX", paseto.NewV4AsymmetricSecretKey().ExportHex())
}

func TestLoadConfigFromEnv_MissingKeys(t *testing.T) {
	t.Setenv("PRYDE_PASETO_ACCESS_KEY_HEX", "")
	t.Setenv("PRYDE_PASETO_REFRESH_KEY_HEX", "")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig on missing keys, got %v", err)
	}
}

func TestLoadConfigFromEnv_SharedKeys(t *testing.T) {
	key := paseto.NewV4AsymmetricSecretKey().ExportHex()
	t.Setenv("PRYDE_PASETO_ACCESS_KEY_HEX", key)
	t.Setenv("PRYDE_PASETO_REFRESH_KEY_HEX", key)
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig on shared keys, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	setTestKeys(t)
	t.Setenv("PRYDE_AUTH_ACCESS_TTL", "-5m")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_GraceBoundedByRefreshTTL(t *testing.T) {
	setTestKeys(t)
	t.Setenv("PRYDE_AUTH_REFRESH_TTL", "1h")
	t.Setenv("PRYDE_AUTH_ROTATION_GRACE", "2h")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig when grace exceeds refresh ttl, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidMaxSessions(t *testing.T) {
	setTestKeys(t)
	t.Setenv("PRYDE_AUTH_MAX_SESSIONS", "0")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig for zero max sessions, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	setTestKeys(t)
	t.Setenv("PRYDE_AUTH_ISSUER", "pryde-test")
	t.Setenv("PRYDE_AUTH_ACCESS_TTL", "10m")
	t.Setenv("PRYDE_AUTH_REFRESH_TTL", "168h")
	t.Setenv("PRYDE_AUTH_ROTATION_GRACE", "15m")
	t.Setenv("PRYDE_AUTH_MAX_SESSIONS", "3")
	t.Setenv("PRYDE_AUTH_CLOCK_SKEW", "20s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Issuer != "pryde-test" {
		t.Fatalf("issuer mismatch: %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL != 10*time.Minute {
		t.Fatalf("access ttl mismatch: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 168*time.Hour {
		t.Fatalf("refresh ttl mismatch: %v", cfg.RefreshTokenTTL)
	}
	if cfg.RotationGraceWindow != 15*time.Minute {
		t.Fatalf("grace window mismatch: %v", cfg.RotationGraceWindow)
	}
	if cfg.MaxConcurrentSessions != 3 {
		t.Fatalf("max sessions mismatch: %d", cfg.MaxConcurrentSessions)
	}
	if cfg.ClockSkew != 20*time.Second {
		t.Fatalf("clock skew mismatch: %v", cfg.ClockSkew)
	}
}
