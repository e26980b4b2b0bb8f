// Package session implements Pryde's session and refresh-token lifecycle.
//
// It provides a multi-device session model with refresh-token rotation
// under a grace window, bounded per-account eviction, device/location
// risk classification, and per-session/per-user revocation.
//
// Access and refresh tokens are issued as PASETO v4.public, signed with
// two distinct keypairs so one kind can never be presented as the other.
// Refresh secrets are stored hashed in Postgres (HMAC-SHA256 when
// PRYDE_TOKEN_HMAC_KEY is set; otherwise SHA-256 for dev/back-compat);
// rows predating hashing carry the SecretLegacyUnhashed state and are
// migrated in place on their next rotation.
//
// The authoritative store is Postgres. A denormalized rolling list of
// recent sessions is mirrored onto the account record for read-heavy UI
// paths; it is best-effort and never consulted for authorization.
//
// Transport (HTTP/WS) integration is intentionally out of scope here.
package session
