package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Facade-level counters. Results are coarse on purpose: fine-grained
// failure detail belongs in logs and the security-event stream, not in
// metric labels.
var (
	metricLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pryde_auth_logins_total",
		Help: "Login attempts by result (ok, invalid_credentials, locked, banned, suspended, error).",
	}, []string{"result"})

	metricRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pryde_auth_refreshes_total",
		Help: "Refresh attempts by result (ok, rejected, error).",
	}, []string{"result"})

	metricEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pryde_auth_sessions_evicted_total",
		Help: "Sessions revoked by the per-account concurrency cap.",
	})

	metricAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pryde_auth_login_alerts_total",
		Help: "Login alerts by result (sent, failed).",
	}, []string{"result"})

	metricMirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pryde_auth_cache_mirror_failures_total",
		Help: "Best-effort session cache mirror writes that failed.",
	})
)
