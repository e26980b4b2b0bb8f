// Package token provides secret hashing primitives for Pryde.
//
// It is the single source of truth for refresh-secret hashing behavior.
//
// Design goals:
// - Default dev/back-compat mode: SHA-256(secret) when no HMAC key is configured.
// - Production-enforced mode: HMAC-SHA256(secret, key) when policy requires it.
// - Stable 64-char hex output for storage and constant-time comparison.
//
// Environment:
// - PRYDE_TOKEN_HMAC_KEY: when set, enables HMAC mode.
package token
