// Package realtime is the WebSocket surface of the service. Connections
// authenticate with an access token and are registered per session, so
// that revoking a session force-closes everything still attached to it.
package realtime

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks live WebSocket connections keyed by user and session. It
// implements the transport-closer hook the session facade calls on
// logout, eviction, and revoke-all.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]map[string]map[*websocket.Conn]struct{}
}

// NewHub constructs an empty connection registry.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		conns: make(map[string]map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) add(userID, sessionID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byUser, ok := h.conns[userID]
	if !ok {
		byUser = make(map[string]map[*websocket.Conn]struct{})
		h.conns[userID] = byUser
	}
	bySession, ok := byUser[sessionID]
	if !ok {
		bySession = make(map[*websocket.Conn]struct{})
		byUser[sessionID] = bySession
	}
	bySession[c] = struct{}{}
}

func (h *Hub) remove(userID, sessionID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byUser, ok := h.conns[userID]
	if !ok {
		return
	}
	bySession, ok := byUser[sessionID]
	if !ok {
		return
	}
	delete(bySession, c)
	if len(bySession) == 0 {
		delete(byUser, sessionID)
	}
	if len(byUser) == 0 {
		delete(h.conns, userID)
	}
}

// CloseSessions force-closes every connection bound to the given
// sessions. An empty sessionIDs list closes all of the user's
// connections. Closing is asynchronous relative to the read loops: each
// loop observes its connection failing and unregisters itself.
func (h *Hub) CloseSessions(userID string, sessionIDs ...string) {
	victims := h.collect(userID, sessionIDs)
	for _, c := range victims {
		_ = c.Close(websocket.StatusPolicyViolation, "session revoked")
	}
	if len(victims) > 0 {
		h.log.Info("realtime.close.sessions",
			"user_id", userID, "sessions", closeScope(sessionIDs), "conns", len(victims))
	}
}

// closeScope labels the log line for a close request. An empty target
// list means every session of the user.
func closeScope(sessionIDs []string) string {
	if len(sessionIDs) == 0 {
		return "all"
	}
	return strconv.Itoa(len(sessionIDs))
}

func (h *Hub) collect(userID string, sessionIDs []string) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	byUser, ok := h.conns[userID]
	if !ok {
		return nil
	}

	var out []*websocket.Conn
	if len(sessionIDs) == 0 {
		for _, bySession := range byUser {
			for c := range bySession {
				out = append(out, c)
			}
		}
		return out
	}
	for _, sid := range sessionIDs {
		for c := range byUser[sid] {
			out = append(out, c)
		}
	}
	return out
}
