// Package app wires the pryde server runtime: config, logging, the
// session subsystem, HTTP routes, and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amatex1/pryde-backend-sub001/internal/account"
	authapi "github.com/Amatex1/pryde-backend-sub001/internal/auth/api"
	"github.com/Amatex1/pryde-backend-sub001/internal/auth/challenge"
	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
	"github.com/Amatex1/pryde-backend-sub001/internal/realtime"
)

// App is the server runtime: it owns the HTTP server wiring and the
// lifecycle of DB-backed resources.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	challenges *challenge.Store

	sessions *session.Service
	auth     *authapi.Handler
	ws       *realtime.Gateway
}

// New constructs a fully wired App instance from config and logger.
// Without PRYDE_DATABASE_URL the session and account stores fall back
// to in-memory implementations for dev.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		return nil, err
	}

	var (
		dbPool    *pgxpool.Pool
		dbEnabled bool

		sessStore session.Store
		accounts  session.AccountDirectory
		backend   session.CacheBackend
	)

	lockout := account.LoadLockoutConfigFromEnv()

	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		sessStore = session.NewMemoryStore()
		mem := account.NewMemoryStore(lockout)
		accounts, backend = mem, mem
	} else {
		dbPool, err = NewDBPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")
		dbEnabled = true

		sessStore = session.NewPostgresStore(dbPool)
		pg := account.NewPostgresStore(dbPool, lockout)
		accounts, backend = pg, pg
	}

	cache := session.NewAccountCache(backend, sessCfg.MaxConcurrentSessions, sessCfg.StaleSessionMaxAge)

	challenges, err := challenge.Open(cfg.ChallengePath)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	hub := realtime.NewHub(log)
	apiCfg := authapi.LoadConfigFromEnv()

	opts := []session.Option{
		session.WithTransportCloser(hub),
		session.WithChallengeIssuer(challenges),
	}
	if apiCfg.GeoBaseURL != "" {
		opts = append(opts, session.WithGeoLocator(authapi.NewHTTPGeoLocator(apiCfg.GeoBaseURL, nil)))
	}
	if apiCfg.SMTPHost != "" {
		opts = append(opts, session.WithAlertSender(authapi.NewSMTPAlertSender(
			apiCfg.SMTPHost, apiCfg.SMTPPort, apiCfg.SMTPUser, apiCfg.SMTPPass, apiCfg.SMTPFrom,
		)))
	}

	svc := session.NewService(sessCfg, log, codec, sessStore, cache, accounts, opts...)

	handlerOpts := []authapi.HandlerOption{
		authapi.WithChallengeStore(challenges),
	}
	if dbEnabled {
		handlerOpts = append(handlerOpts, authapi.WithAuditor(authapi.NewAuditor(log, dbPool)))
	}
	authHandler := authapi.NewHandler(log, apiCfg, svc, handlerOpts...)

	ws := realtime.NewGateway(log, hub, svc, cfg.WSAllowedOrigins)

	return &App{
		cfg:        cfg,
		log:        log,
		dbPool:     dbPool,
		dbEnabled:  dbEnabled,
		challenges: challenges,
		sessions:   svc,
		auth:       authHandler,
		ws:         ws,
	}, nil
}

// SessionService exposes the session facade for tests and tooling.
func (a *App) SessionService() *session.Service {
	if a == nil {
		return nil
	}
	return a.sessions
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.ws, a.auth)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.close()

	a.log.Info("server.stopped")
	return nil
}

func (a *App) close() {
	if a.challenges != nil {
		if err := a.challenges.Close(); err != nil {
			a.log.Error("challenge.close.fail", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
