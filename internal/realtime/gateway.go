package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

const (
	defaultReadIdle      = 2 * time.Minute
	defaultHeartbeat     = 30 * time.Second
	heartbeatTimeout     = 5 * time.Second
	maxPingFailures      = 3
	maxInboundFrameBytes = 4096
)

// AccessValidator verifies a bearer access token against the live
// session state. Satisfied by *session.Service.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, token string, now time.Time) (session.Claims, error)
}

// Gateway upgrades authenticated HTTP requests to WebSocket
// connections and keeps them registered in the Hub for the lifetime of
// the connection.
type Gateway struct {
	log  *slog.Logger
	hub  *Hub
	auth AccessValidator

	// originPatterns feeds websocket.Accept's cross-origin policy.
	originPatterns []string

	readIdle  time.Duration
	heartbeat time.Duration
}

// NewGateway constructs the WebSocket entrypoint.
func NewGateway(log *slog.Logger, hub *Hub, auth AccessValidator, originPatterns []string) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		log:            log,
		hub:            hub,
		auth:           auth,
		originPatterns: originPatterns,
		readIdle:       defaultReadIdle,
		heartbeat:      defaultHeartbeat,
	}
}

// ServeHTTP adapter so the gateway can be mounted as http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS authenticates the request, upgrades it, and runs the
// connection loop until the peer leaves or the session is revoked.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing access token", http.StatusUnauthorized)
		return
	}

	claims, err := g.auth.ValidateAccess(r.Context(), token, time.Now().UTC())
	if err != nil {
		g.log.Info("realtime.reject.token", "err", err, "remote", r.RemoteAddr)
		http.Error(w, "invalid access token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("realtime.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxInboundFrameBytes)

	g.hub.add(claims.UserID, claims.SessionID, conn)
	defer g.hub.remove(claims.UserID, claims.SessionID, conn)

	g.log.Info("realtime.connect",
		"user_id", claims.UserID, "session_id", claims.SessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.heartbeat)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, heartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					if failures >= maxPingFailures {
						_ = conn.Close(websocket.StatusGoingAway, "heartbeat failed")
						cancel()
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	// The gateway is server-push only: inbound frames are drained and
	// discarded. The loop ends when the peer closes, the read idles out,
	// or the Hub force-closes the connection.
	for {
		readCtx, readCancel := context.WithTimeout(ctx, g.readIdle)
		_, _, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) == -1 &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				g.log.Info("realtime.read.end",
					"err", err, "user_id", claims.UserID, "session_id", claims.SessionID)
			}
			break
		}
	}

	cancel()
	<-heartbeatDone
}

// bearerToken extracts the access token from the Authorization header,
// falling back to the access_token query parameter for browser clients
// that cannot set headers on WebSocket upgrades.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
