package account

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LockoutConfig is the failed-login lockout policy applied by the
// account repository. The session facade only consumes the resulting
// LockedUntil timestamps.
type LockoutConfig struct {
	// Threshold is the failed-login count at which the account locks.
	Threshold int
	// Duration is how long the lock holds.
	Duration time.Duration
}

// DefaultLockoutConfig returns the baseline lockout policy.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold: 5,
		Duration:  15 * time.Minute,
	}
}

// LoadLockoutConfigFromEnv loads lockout policy from environment
// variables with defaults:
//   - PRYDE_ACCOUNT_LOCK_THRESHOLD
//   - PRYDE_ACCOUNT_LOCK_DURATION
func LoadLockoutConfigFromEnv() LockoutConfig {
	cfg := DefaultLockoutConfig()

	if v := strings.TrimSpace(os.Getenv("PRYDE_ACCOUNT_LOCK_THRESHOLD")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Threshold = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PRYDE_ACCOUNT_LOCK_DURATION")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Duration = d
		}
	}
	return cfg
}
