package session

import (
	"os"
	"strconv"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls token TTLs, the rotation grace window, per-account session
// limits, retention, collaborator timeouts, clock skew tolerance, and the
// PASETO v4 signing keys.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of access tokens (minutes scale).
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh tokens (days scale).
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// RotationGraceWindow is how long a superseded refresh secret stays
	// valid after rotation, to tolerate in-flight requests.
	RotationGraceWindow time.Duration

	// MaxConcurrentSessions caps active sessions per account; oldest by
	// last activity are evicted beyond the cap.
	MaxConcurrentSessions int

	// StaleSessionMaxAge bounds how long an inactive entry survives in
	// the account's rolling cache.
	StaleSessionMaxAge time.Duration

	// RevokedRetentionDays is how long revoked rows are kept before the
	// storage-level purge removes them (see db/schema.sql).
	RevokedRetentionDays int

	// LoginHistoryCap bounds the per-account login history used by the
	// risk heuristic.
	LoginHistoryCap int

	// GeoTimeout bounds the IP geolocation lookup during login.
	GeoTimeout time.Duration

	// AlertTimeout bounds login-alert dispatch.
	AlertTimeout time.Duration

	// MirrorTimeout bounds the fire-and-forget cache mirror write.
	MirrorTimeout time.Duration

	// AccessSecretKeyHex is the hex-encoded Ed25519 secret key (S1)
	// used to sign access tokens.
	AccessSecretKeyHex string

	// RefreshSecretKeyHex is the hex-encoded Ed25519 secret key (S2)
	// used to sign refresh tokens. Must differ from S1 so one token
	// kind can never verify as the other.
	RefreshSecretKeyHex string
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:                "pryde",
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       30 * 24 * time.Hour,
		ClockSkew:             30 * time.Second,
		RotationGraceWindow:   30 * time.Minute,
		MaxConcurrentSessions: 5,
		StaleSessionMaxAge:    30 * 24 * time.Hour,
		RevokedRetentionDays:  30,
		LoginHistoryCap:       20,
		GeoTimeout:            2 * time.Second,
		AlertTimeout:          5 * time.Second,
		MirrorTimeout:         3 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - PRYDE_PASETO_ACCESS_KEY_HEX
//   - PRYDE_PASETO_REFRESH_KEY_HEX (must differ from the access key)
//
// Optional (durations must be valid Go duration strings, e.g. "720h"):
//   - PRYDE_AUTH_ISSUER
//   - PRYDE_AUTH_ACCESS_TTL
//   - PRYDE_AUTH_REFRESH_TTL
//   - PRYDE_AUTH_CLOCK_SKEW
//   - PRYDE_AUTH_ROTATION_GRACE
//   - PRYDE_AUTH_MAX_SESSIONS
//   - PRYDE_AUTH_STALE_MAX_AGE
//   - PRYDE_AUTH_REVOKED_RETENTION_DAYS
//   - PRYDE_AUTH_LOGIN_HISTORY_CAP
//   - PRYDE_AUTH_GEO_TIMEOUT
//   - PRYDE_AUTH_ALERT_TIMEOUT
//   - PRYDE_AUTH_MIRROR_TIMEOUT
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PRYDE_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"PRYDE_AUTH_ACCESS_TTL", &cfg.AccessTokenTTL},
		{"PRYDE_AUTH_REFRESH_TTL", &cfg.RefreshTokenTTL},
		{"PRYDE_AUTH_ROTATION_GRACE", &cfg.RotationGraceWindow},
		{"PRYDE_AUTH_STALE_MAX_AGE", &cfg.StaleSessionMaxAge},
		{"PRYDE_AUTH_GEO_TIMEOUT", &cfg.GeoTimeout},
		{"PRYDE_AUTH_ALERT_TIMEOUT", &cfg.AlertTimeout},
		{"PRYDE_AUTH_MIRROR_TIMEOUT", &cfg.MirrorTimeout},
	} {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil || parsed <= 0 {
				return Config{}, ErrConfig
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("PRYDE_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	for _, n := range []struct {
		key string
		dst *int
		min int
		max int
	}{
		{"PRYDE_AUTH_MAX_SESSIONS", &cfg.MaxConcurrentSessions, 1, 100},
		{"PRYDE_AUTH_REVOKED_RETENTION_DAYS", &cfg.RevokedRetentionDays, 1, 365},
		{"PRYDE_AUTH_LOGIN_HISTORY_CAP", &cfg.LoginHistoryCap, 1, 1000},
	} {
		if v := os.Getenv(n.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < n.min || parsed > n.max {
				return Config{}, ErrConfig
			}
			*n.dst = parsed
		}
	}

	cfg.AccessSecretKeyHex = os.Getenv("PRYDE_PASETO_ACCESS_KEY_HEX")
	cfg.RefreshSecretKeyHex = os.Getenv("PRYDE_PASETO_REFRESH_KEY_HEX")
	if cfg.AccessSecretKeyHex == "" || cfg.RefreshSecretKeyHex == "" {
		return Config{}, ErrConfig
	}
	if cfg.AccessSecretKeyHex == cfg.RefreshSecretKeyHex {
		return Config{}, ErrConfig
	}

	// Invariant: the grace window never outlives the refresh TTL.
	if cfg.RotationGraceWindow > cfg.RefreshTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
