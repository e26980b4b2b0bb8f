package app

import (
	"errors"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/token"
)

// ValidateSecurityConfig enforces the secret-hashing policy at startup.
// Fail-fast: silently falling back to weaker hashing in production is
// unacceptable, so under policy the process refuses to start.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// 32 bytes minimum for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: PRYDE_REQUIRE_TOKEN_HMAC=true but PRYDE_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: PRYDE_REQUIRE_TOKEN_HMAC=true but PRYDE_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: PRYDE_REQUIRE_TOKEN_HMAC=true but secret hasher is not in HMAC mode")
	}

	return nil
}
