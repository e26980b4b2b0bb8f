package authapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Auditor records security events into pryde.security_events. Inserts
// are best-effort: a failed write is logged and never surfaces to the
// request.
type Auditor struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

// NewAuditor constructs a security-event recorder.
func NewAuditor(log *slog.Logger, pool *pgxpool.Pool) *Auditor {
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{log: log, pool: pool}
}

func (a *Auditor) loginSuccess(ctx context.Context, userID, sessionID string, ip net.IP, newDevice, suspicious bool) {
	a.insert(ctx, "auth.login.success", &userID, &sessionID, ip, map[string]any{
		"new_device": newDevice,
		"suspicious": suspicious,
	})
}

func (a *Auditor) loginFailed(ctx context.Context, ip net.IP, identifier, reason string) {
	a.insert(ctx, "auth.login.failed", nil, nil, ip, map[string]any{
		"identifier": identifier,
		"reason":     reason,
	})
}

func (a *Auditor) loginLocked(ctx context.Context, ip net.IP, identifier string, retryAfter time.Duration) {
	a.insert(ctx, "auth.login.locked", nil, nil, ip, map[string]any{
		"identifier":    identifier,
		"retry_after_s": int64(retryAfter.Seconds()),
	})
}

func (a *Auditor) refreshSuccess(ctx context.Context, sessionID string, ip net.IP) {
	a.insert(ctx, "auth.refresh.success", nil, &sessionID, ip, nil)
}

func (a *Auditor) refreshRejected(ctx context.Context, ip net.IP) {
	a.insert(ctx, "auth.refresh.rejected", nil, nil, ip, nil)
}

func (a *Auditor) logout(ctx context.Context, userID, sessionID string, ip net.IP) {
	a.insert(ctx, "auth.logout", &userID, &sessionID, ip, nil)
}

func (a *Auditor) logoutAll(ctx context.Context, userID string, ip net.IP) {
	a.insert(ctx, "auth.logout_all", &userID, nil, ip, nil)
}

func (a *Auditor) disavow(ctx context.Context, userID string, ip net.IP, revoked int64) {
	a.insert(ctx, "auth.disavow", &userID, nil, ip, map[string]any{
		"revoked": revoked,
	})
}

func (a *Auditor) insert(ctx context.Context, action string, userID, sessionID *string, ip net.IP, meta map[string]any) {
	if a == nil || a.pool == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	var ipVal any
	if ip != nil {
		ipVal = ip.String()
	}

	var metaVal *string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			s := string(b)
			metaVal = &s
		}
	}

	// ULIDs keep the event log sortable by insertion time.
	id := ulid.Make().String()

	_, err := a.pool.Exec(ctx, `
		INSERT INTO pryde.security_events (
			id, user_id, session_id, action, created_at, ip, meta
		) VALUES ($1, $2, $3, $4, now(), $5, $6::jsonb)
	`, id, userID, sessionID, action, ipVal, metaVal)
	if err != nil {
		a.log.Error("auth.audit.insert.fail", "err", err, "action", action)
	}
}
