package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// ChallengePath is the buntdb file backing one-shot challenges.
	// ":memory:" keeps them ephemeral.
	ChallengePath string

	// WSAllowedOrigins feeds the WebSocket cross-origin policy.
	WSAllowedOrigins []string

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// If true, PRYDE_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-secret hashing must be HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("PRYDE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("PRYDE_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("PRYDE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("PRYDE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("PRYDE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("PRYDE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("PRYDE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("PRYDE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("PRYDE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("PRYDE_DB_MIN_CONNS", 0),

		ChallengePath: EnvString("PRYDE_CHALLENGE_DB", ":memory:"),

		WSAllowedOrigins: EnvCSV("PRYDE_WS_ALLOWED_ORIGINS", "localhost,127.0.0.1"),

		ReadinessRequireDB: EnvBool("PRYDE_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("PRYDE_REQUIRE_TOKEN_HMAC", false),
	}
}
