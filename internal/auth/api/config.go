package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls the auth HTTP surface: transport hardening, the web
// cookie contract, and the optional geolocation/alert integrations.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Web refresh transport. When enabled, web clients carry the refresh
	// token in an HttpOnly cookie paired with a double-submit CSRF token.
	WebRefreshCookieEnabled bool
	RefreshCookieName       string
	CSRFCookieName          string
	CSRFHeaderName          string
	CookiePath              string
	CookieDomain            string
	CookieSecure            bool
	CookieSameSite          http.SameSite

	// Geolocation lookup endpoint; empty disables the integration.
	GeoBaseURL string

	// SMTP alert delivery; empty host disables the integration.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// LoadConfigFromEnv loads auth API config from environment variables
// with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:   envBool("PRYDE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes: envInt64("PRYDE_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB

		WebRefreshCookieEnabled: envBool("PRYDE_AUTH_WEB_COOKIES", true),
		RefreshCookieName:       envString("PRYDE_AUTH_REFRESH_COOKIE", "pryde_refresh"),
		CSRFCookieName:          envString("PRYDE_AUTH_CSRF_COOKIE", "pryde_csrf"),
		CSRFHeaderName:          envString("PRYDE_AUTH_CSRF_HEADER", "X-Pryde-CSRF"),
		CookiePath:              envString("PRYDE_AUTH_COOKIE_PATH", "/auth"),
		CookieDomain:            envString("PRYDE_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:            envBool("PRYDE_AUTH_COOKIE_SECURE", true),
		CookieSameSite:          http.SameSiteStrictMode,

		GeoBaseURL: envString("PRYDE_GEO_BASE_URL", ""),

		SMTPHost: envString("PRYDE_SMTP_HOST", ""),
		SMTPPort: envInt("PRYDE_SMTP_PORT", 587),
		SMTPUser: envString("PRYDE_SMTP_USER", ""),
		SMTPPass: envString("PRYDE_SMTP_PASS", ""),
		SMTPFrom: envString("PRYDE_SMTP_FROM", "no-reply@pryde.local"),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
