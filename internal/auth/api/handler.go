// Package authapi exposes the session lifecycle over HTTP: login,
// refresh, logout, session inspection, and the alert disavow path.
package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/challenge"
	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

// Handler wires the HTTP auth endpoints to the session facade.
type Handler struct {
	log *slog.Logger
	cfg Config

	sessions   *session.Service
	challenges *challenge.Store
	audit      *Auditor
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithChallengeStore enables the disavow endpoint.
func WithChallengeStore(store *challenge.Store) HandlerOption {
	return func(h *Handler) {
		if h != nil && store != nil {
			h.challenges = store
		}
	}
}

// WithAuditor enables security-event recording.
func WithAuditor(a *Auditor) HandlerOption {
	return func(h *Handler) {
		if h != nil && a != nil {
			h.audit = a
		}
	}
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout_all", h.handleLogoutAll)
	mux.HandleFunc("/auth/sessions", h.handleSessions)
	mux.HandleFunc("/auth/sessions/disavow", h.handleDisavow)
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	dev := deviceFromRequest(r, req.Device)

	res, err := h.sessions.Login(ctx, now, session.Credentials{
		Email:    req.Email,
		Password: req.Password,
	}, dev, ip)
	if err != nil {
		var locked session.AccountLockedError
		switch {
		case errors.As(err, &locked):
			h.audit.loginLocked(ctx, ip, req.Email, locked.RetryAfter)
			writeLocked(w, locked.RetryAfter)
		case errors.Is(err, session.ErrInvalidCredentials):
			h.audit.loginFailed(ctx, ip, req.Email, "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		case errors.Is(err, session.ErrAccountBanned):
			h.audit.loginFailed(ctx, ip, req.Email, "banned")
			writeError(w, http.StatusForbidden, "account_banned", "account is banned")
		case errors.Is(err, session.ErrAccountSuspended):
			h.audit.loginFailed(ctx, ip, req.Email, "suspended")
			writeError(w, http.StatusForbidden, "account_suspended", "account is suspended")
		default:
			h.log.Error("auth.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.audit.loginSuccess(ctx, res.AccountID, res.Pair.SessionID, ip, res.NewDevice, res.Suspicious)

	respSession := toPairResponse(res.Pair)
	if req.Web && h.cfg.WebRefreshCookieEnabled {
		if _, err := h.setWebSessionCookies(w, res.Pair.RefreshToken, res.Pair.RefreshExp); err != nil {
			h.log.Error("auth.login.web_cookie.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		respSession.RefreshToken = ""
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccountID:   res.AccountID,
		Email:       res.Email,
		DisplayName: res.DisplayName,
		NewDevice:   res.NewDevice,
		Suspicious:  res.Suspicious,
		Session:     respSession,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	fromCookie := false
	if cookieToken, ok := h.refreshTokenFromCookie(r); ok {
		fromCookie = true
		if refreshToken == "" {
			refreshToken = cookieToken
		}
	}
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}
	if fromCookie && !h.csrfDoubleSubmitValid(r) {
		writeError(w, http.StatusForbidden, "csrf_invalid", "missing or invalid csrf token")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	pair, err := h.sessions.Refresh(ctx, now, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshRejected) {
			h.audit.refreshRejected(ctx, ip)
			writeError(w, http.StatusUnauthorized, "refresh_rejected", "refresh token rejected")
			return
		}
		h.log.Error("auth.refresh.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.refreshSuccess(ctx, pair.SessionID, ip)

	respSession := toPairResponse(pair)
	if fromCookie {
		if _, err := h.setWebSessionCookies(w, pair.RefreshToken, pair.RefreshExp); err != nil {
			h.log.Error("auth.refresh.web_cookie.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		respSession.RefreshToken = ""
	}

	writeJSON(w, http.StatusOK, refreshResponse{Session: respSession})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	if err := h.sessions.Logout(ctx, now, claims.SessionID, claims.UserID); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.logout(ctx, claims.UserID, claims.SessionID, clientIP(r, h.cfg.TrustProxy))
	h.clearWebSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	if _, err := h.sessions.LogoutAll(ctx, now, claims.UserID); err != nil {
		h.log.Error("auth.logout_all.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.logoutAll(ctx, claims.UserID, clientIP(r, h.cfg.TrustProxy))
	h.clearWebSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	summaries, err := h.sessions.ListSessions(r.Context(), claims.UserID)
	if err != nil {
		h.log.Error("auth.sessions.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := make([]sessionSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: out})
}

// handleDisavow consumes a "this wasn't me" token from a login alert
// and revokes every session of the account. No bearer auth: the caller
// by definition does not hold a valid session of their own.
func (h *Handler) handleDisavow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.challenges == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "disavow not configured")
		return
	}

	var req disavowRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	id, secret, ok := splitDisavowToken(req.Token)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	userID, err := h.challenges.Consume(ctx, id, secret, "session_disavow")
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}
		h.log.Error("auth.disavow.consume.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	count, err := h.sessions.Disavow(ctx, now, userID)
	if err != nil {
		h.log.Error("auth.disavow.revoke.fail", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.disavow(ctx, userID, clientIP(r, h.cfg.TrustProxy), count)
	writeJSON(w, http.StatusOK, disavowResponse{Revoked: count})
}

// ---- helpers ----

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.Claims, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return session.Claims{}, false
	}
	claims, err := h.sessions.ValidateAccess(r.Context(), token, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return session.Claims{}, false
	}
	return claims, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func splitDisavowToken(tok string) (id, secret string, ok bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" || len(tok) > 512 {
		return "", "", false
	}
	i := strings.IndexByte(tok, '.')
	if i <= 0 || i == len(tok)-1 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

func deviceFromRequest(r *http.Request, req deviceRequest) session.Device {
	dev := session.Device{
		Label:       strings.TrimSpace(req.Label),
		Browser:     strings.TrimSpace(req.Browser),
		OS:          strings.TrimSpace(req.OS),
		Fingerprint: strings.TrimSpace(req.Fingerprint),
	}
	if dev.Label == "" {
		dev.Label = strings.TrimSpace(r.UserAgent())
	}
	return dev
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
