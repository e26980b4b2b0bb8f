package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/security/password"
)

// disavowChallengeTTL bounds how long the "this wasn't me" link in a
// login alert stays usable.
const disavowChallengeTTL = 24 * time.Hour

// Service is the orchestrating entry point for login, refresh, logout,
// and session listing. It sequences the codec, the authoritative store,
// the rolling account cache, the lifecycle policy, and the risk
// heuristic, and talks to the external collaborators (account
// repository, geolocation, alert delivery, live transports).
type Service struct {
	cfg   Config
	log   *slog.Logger
	codec *Codec
	store Store
	cache *AccountCache

	accounts   AccountDirectory
	geo        GeoLocator
	alerts     AlertSender
	challenges ChallengeIssuer
	transports TransportCloser

	// dummyHash keeps credential checks timing-resistant when the
	// account does not exist.
	dummyHash string
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithGeoLocator overrides the default no-op geolocation lookup.
func WithGeoLocator(g GeoLocator) Option {
	return func(s *Service) {
		if g != nil {
			s.geo = g
		}
	}
}

// WithAlertSender overrides the default no-op login-alert sender.
func WithAlertSender(a AlertSender) Option {
	return func(s *Service) {
		if a != nil {
			s.alerts = a
		}
	}
}

// WithChallengeIssuer overrides the default no-op challenge issuer.
func WithChallengeIssuer(c ChallengeIssuer) Option {
	return func(s *Service) {
		if c != nil {
			s.challenges = c
		}
	}
}

// WithTransportCloser overrides the default no-op transport closer.
func WithTransportCloser(t TransportCloser) Option {
	return func(s *Service) {
		if t != nil {
			s.transports = t
		}
	}
}

// NewService constructs the session facade.
func NewService(cfg Config, log *slog.Logger, codec *Codec, store Store, cache *AccountCache, accounts AccountDirectory, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:        cfg,
		log:        log,
		codec:      codec,
		store:      store,
		cache:      cache,
		accounts:   accounts,
		geo:        NoopGeoLocator{},
		alerts:     NoopAlertSender{},
		challenges: NoopChallengeIssuer{},
		transports: NoopTransportCloser{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	// Timing resistance for unknown-account logins; cheap params are
	// fine, the point is taking the same code path.
	if hash, err := password.Hash("dummy-password-for-timing-only", password.DefaultParams()); err == nil {
		s.dummyHash = hash
	}

	return s
}

// Credentials is a login attempt's identifier/secret pair.
type Credentials struct {
	Email    string
	Password string
}

// LoginResult is the successful outcome of Login.
type LoginResult struct {
	Pair Pair

	AccountID   string
	Email       string
	DisplayName string

	NewDevice  bool
	Suspicious bool
}

// Login authenticates credentials and establishes a new session.
//
// The authoritative store create is mandatory; cache mirroring, risk
// alerting, geolocation, and lifecycle bookkeeping are best-effort and
// never fail the request.
func (s *Service) Login(ctx context.Context, now time.Time, creds Credentials, dev Device, ip net.IP) (LoginResult, error) {
	res, err := s.login(ctx, now, creds, dev, ip)
	metricLogins.WithLabelValues(loginResultLabel(err)).Inc()
	return res, err
}

func (s *Service) login(ctx context.Context, now time.Time, creds Credentials, dev Device, ip net.IP) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			if s.dummyHash != "" {
				_, _ = password.Verify(creds.Password, s.dummyHash)
			}
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	switch acct.Status {
	case AccountBanned:
		return LoginResult{}, ErrAccountBanned
	case AccountSuspended:
		if acct.SuspendedUntil == nil || acct.SuspendedUntil.After(now) {
			return LoginResult{}, ErrAccountSuspended
		}
	}
	if acct.LockedUntil != nil && acct.LockedUntil.After(now) {
		return LoginResult{}, AccountLockedError{RetryAfter: acct.LockedUntil.Sub(now)}
	}

	ok, verr := password.Verify(creds.Password, acct.PasswordHash)
	if verr != nil || !ok {
		ipStr := ipString(ip)
		if herr := s.accounts.AppendLoginEvent(ctx, acct.ID, LoginEvent{
			At: now, IP: ipStr, Fingerprint: dev.Fingerprint,
		}, s.cfg.LoginHistoryCap); herr != nil {
			s.log.Warn("session.login.history.fail", "err", herr, "user_id", acct.ID)
		}
		lockedUntil, ferr := s.accounts.RecordLoginFailure(ctx, acct.ID, now)
		if ferr != nil {
			s.log.Error("session.login.failure_count.fail", "err", ferr, "user_id", acct.ID)
		} else if lockedUntil != nil {
			return LoginResult{}, AccountLockedError{RetryAfter: lockedUntil.Sub(now)}
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	ipStr := ipString(ip)
	loc := s.locate(ctx, ip)
	newDevice := IsNewDevice(acct.LoginHistory, ipStr, dev.Fingerprint, acct.TrustedDevices)
	suspicious := IsSuspicious(acct.LoginHistory, ipStr, dev.Fingerprint, acct.TrustedDevices, loc)

	pair, err := s.codec.MintPair(acct.ID, "", now)
	if err != nil {
		return LoginResult{}, err
	}

	sess, err := s.store.Create(ctx, now, CreateInput{
		SessionID: pair.SessionID,
		UserID:    acct.ID,
		Secret:    pair.RefreshToken,
		Expiry:    pair.RefreshExp,
		Device:    dev,
		IPAddress: ipStr,
		Location:  loc,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			// 256-bit random ids do not collide; this is an
			// identifier-generation defect.
			s.log.Error("session.create.duplicate_id",
				"session_id", pair.SessionID, "user_id", acct.ID)
		}
		return LoginResult{}, err
	}

	s.mirror(acct.ID, sess.Snapshot(), now)
	s.enforceLimit(ctx, now, acct.ID, sess.ID)

	if err := s.accounts.ResetLoginFailures(ctx, acct.ID); err != nil {
		s.log.Warn("session.login.failure_reset.fail", "err", err, "user_id", acct.ID)
	}
	if err := s.accounts.AppendLoginEvent(ctx, acct.ID, LoginEvent{
		At: now, IP: ipStr, Fingerprint: dev.Fingerprint,
		Country: loc.Country, Success: true,
	}, s.cfg.LoginHistoryCap); err != nil {
		s.log.Warn("session.login.history.fail", "err", err, "user_id", acct.ID)
	}

	if newDevice || suspicious {
		s.sendAlert(ctx, now, acct, dev, ipStr, loc, newDevice, suspicious)
	}

	return LoginResult{
		Pair:        pair,
		AccountID:   acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		NewDevice:   newDevice,
		Suspicious:  suspicious,
	}, nil
}

// Refresh rotates the session secret behind a valid refresh token and
// mints a new pair.
//
// Two concurrent refreshes presenting the same still-valid token can
// both pass VerifySecret and rotate in turn; the loser's freshly issued
// pair dies on its next refresh via hash mismatch. Accepted limitation,
// documented in lieu of distributed locking. Concurrent refreshes using
// different valid secrets (current and a still-in-grace previous) each
// succeed exactly once.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (Pair, error) {
	pair, err := s.refresh(ctx, now, refreshToken)
	metricRefreshes.WithLabelValues(refreshResultLabel(err)).Inc()
	return pair, err
}

func (s *Service) refresh(ctx context.Context, now time.Time, refreshToken string) (Pair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	// Basic sanity bounds to avoid pathological inputs.
	if refreshToken == "" || len(refreshToken) > 4096 {
		return Pair{}, ErrRefreshRejected
	}

	claims, err := s.codec.VerifyRefresh(refreshToken, now)
	if err != nil {
		return Pair{}, ErrRefreshRejected
	}

	sess, err := s.store.FindBySessionID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Pair{}, ErrRefreshRejected
		}
		return Pair{}, err
	}
	if sess.UserID != claims.UserID || !sess.IsActive {
		return Pair{}, ErrRefreshRejected
	}
	if !VerifySecret(sess, refreshToken, now) {
		return Pair{}, ErrRefreshRejected
	}

	pair, err := s.codec.MintPair(sess.UserID, sess.ID, now)
	if err != nil {
		return Pair{}, err
	}

	rotatedSess, err := s.store.Rotate(ctx, now, RotateInput{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		NewSecret:       pair.RefreshToken,
		PresentedSecret: refreshToken,
		NewExpiry:       pair.RefreshExp,
		GraceUntil:      now.Add(s.cfg.RotationGraceWindow),
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			// Revoked between verify and rotate.
			return Pair{}, ErrRefreshRejected
		}
		return Pair{}, err
	}

	s.mirror(sess.UserID, rotatedSess.Snapshot(), now)

	return pair, nil
}

// ValidateAccess verifies an access token and ensures the backing
// session is still active; revocation is server-authoritative.
func (s *Service) ValidateAccess(ctx context.Context, tok string, now time.Time) (Claims, error) {
	claims, err := s.codec.VerifyAccess(tok, now)
	if err != nil {
		return Claims{}, err
	}

	sess, err := s.store.FindBySessionID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Claims{}, ErrInvalidToken
		}
		return Claims{}, err
	}
	if sess.UserID != claims.UserID || !sess.IsActive {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// Logout revokes one session, drops it from the rolling cache, and
// force-closes any live transport bound to it.
func (s *Service) Logout(ctx context.Context, now time.Time, sessionID, userID string) error {
	if err := s.store.Revoke(ctx, now, sessionID, userID, "logout"); err != nil {
		return err
	}
	if err := s.cache.Remove(ctx, userID, sessionID); err != nil {
		metricMirrorFailures.Inc()
		s.log.Warn("session.cache.remove.fail", "err", err, "user_id", userID)
	}
	s.transports.CloseSessions(userID, sessionID)
	return nil
}

// LogoutAll revokes every session for a user. Used for "logout
// everywhere" and whenever elevated-privilege tokens must all die.
func (s *Service) LogoutAll(ctx context.Context, now time.Time, userID string) (int64, error) {
	return s.revokeAll(ctx, now, userID, "logout_all")
}

// Disavow revokes every session for a user via the alert-email
// challenge path ("this wasn't me").
func (s *Service) Disavow(ctx context.Context, now time.Time, userID string) (int64, error) {
	return s.revokeAll(ctx, now, userID, "disavowed")
}

func (s *Service) revokeAll(ctx context.Context, now time.Time, userID, reason string) (int64, error) {
	count, err := s.store.RevokeAllForUser(ctx, now, userID, reason)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Clear(ctx, userID); err != nil {
		metricMirrorFailures.Inc()
		s.log.Warn("session.cache.clear.fail", "err", err, "user_id", userID)
	}
	s.transports.CloseSessions(userID)
	return count, nil
}

// Touch updates a session's last activity (best-effort).
func (s *Service) Touch(ctx context.Context, now time.Time, sessionID string) error {
	return s.store.Touch(ctx, now, sessionID)
}

// ListSessions returns the user's active sessions from the
// authoritative store. When that read fails, it degrades to the rolling
// cache -- an inspectable, possibly stale fallback, never used for
// authorization.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]Summary, error) {
	sessions, err := s.store.FindActiveByUser(ctx, userID)
	if err != nil {
		s.log.Warn("session.list.primary.fail", "err", err, "user_id", userID)

		entries, cerr := s.cache.List(ctx, userID)
		if cerr != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(entries))
		for _, e := range entries {
			out = append(out, Summary{
				SessionID:    e.SessionID,
				Device:       e.Device,
				IPAddress:    e.IPAddress,
				Location:     e.Location,
				CreatedAt:    e.CreatedAt,
				LastActiveAt: e.LastActiveAt,
			})
		}
		return out, nil
	}

	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Summary())
	}
	return out, nil
}

// ---- best-effort plumbing ----

// locate is time-bounded; failure downgrades to an unknown location.
func (s *Service) locate(ctx context.Context, ip net.IP) Location {
	if ip == nil {
		return Location{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GeoTimeout)
	defer cancel()

	loc, err := s.geo.Locate(ctx, ip)
	if err != nil {
		s.log.Warn("session.geo.fail", "err", err)
		return Location{}
	}
	return loc
}

// mirror writes the rolling-cache snapshot fire-and-forget. The cache
// is a secondary replica: its failures are counted and logged, never
// propagated.
func (s *Service) mirror(userID string, entry CacheEntry, now time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MirrorTimeout)
		defer cancel()

		if err := s.cache.Append(ctx, userID, entry, now); err != nil {
			metricMirrorFailures.Inc()
			s.log.Warn("session.cache.mirror.fail", "err", err, "user_id", userID)
		}
	}()
}

// enforceLimit applies the concurrency cap after a successful create.
// keepID is the session just created; being the newest it can never be
// selected, the parameter only guards against clock ties.
func (s *Service) enforceLimit(ctx context.Context, now time.Time, userID, keepID string) {
	sessions, err := s.store.FindActiveByUser(ctx, userID)
	if err != nil {
		s.log.Warn("session.evict.list.fail", "err", err, "user_id", userID)
		return
	}

	_, evicted := EnforceMaxSessions(sessions, s.cfg.MaxConcurrentSessions)
	for _, victim := range evicted {
		if victim.ID == keepID {
			continue
		}
		if err := s.store.Revoke(ctx, now, victim.ID, userID, "evicted"); err != nil {
			s.log.Warn("session.evict.revoke.fail", "err", err, "session_id", victim.ID)
			continue
		}
		if err := s.cache.Remove(ctx, userID, victim.ID); err != nil {
			s.log.Warn("session.evict.cache.fail", "err", err, "session_id", victim.ID)
		}
		s.transports.CloseSessions(userID, victim.ID)
		metricEvictions.Inc()
	}
}

func (s *Service) sendAlert(ctx context.Context, now time.Time, acct AccountProfile, dev Device, ip string, loc Location, newDevice, suspicious bool) {
	disavowToken := ""
	if id, secret, err := s.challenges.Issue(ctx, acct.ID, "session_disavow", disavowChallengeTTL); err != nil {
		s.log.Warn("session.alert.challenge.fail", "err", err, "user_id", acct.ID)
	} else if id != "" {
		disavowToken = id + "." + secret
	}

	alertCtx, cancel := context.WithTimeout(ctx, s.cfg.AlertTimeout)
	defer cancel()

	err := s.alerts.SendLoginAlert(alertCtx, LoginAlert{
		AccountID:    acct.ID,
		Email:        acct.Email,
		DisplayName:  acct.DisplayName,
		At:           now,
		Device:       dev,
		IP:           ip,
		Location:     loc,
		NewDevice:    newDevice,
		Suspicious:   suspicious,
		DisavowToken: disavowToken,
	})
	if err != nil {
		metricAlerts.WithLabelValues("failed").Inc()
		s.log.Warn("session.alert.send.fail", "err", err, "user_id", acct.ID)
		return
	}
	metricAlerts.WithLabelValues("sent").Inc()
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func loginResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountLocked):
		return "locked"
	case errors.Is(err, ErrAccountBanned):
		return "banned"
	case errors.Is(err, ErrAccountSuspended):
		return "suspended"
	default:
		return "error"
	}
}

func refreshResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRefreshRejected):
		return "rejected"
	default:
		return "error"
	}
}
