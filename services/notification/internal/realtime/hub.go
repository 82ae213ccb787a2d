package realtime

import (
	"sync"
	"time"

	"taskflow/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	EventNewNotification    = "new-notification"
	EventUpdateNotification = "update-notification"

	writeTimeout = 5 * time.Second
)

// Envelope is the wire shape of every hub message.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks the live websocket sessions of each user. It is process-local
// and never persisted: on reconnect the stored notification rows are the
// source of truth, so delivery here is strictly best-effort.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*websocket.Conn]bool
	logger   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*websocket.Conn]bool),
		logger:   log,
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.sessions[userID]
	if conns == nil {
		conns = make(map[*websocket.Conn]bool)
		h.sessions[userID] = conns
	}
	conns[conn] = true
	h.logger.Info("WebSocket session registered for user %s (%d live)", userID, len(conns))
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(userID, conn)
}

// SessionCount returns the number of live sessions for a user.
func (h *Hub) SessionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[userID])
}

// Publish sends an event to every live session of userID. With no sessions it
// is a silent no-op; a failed write drops that session and moves on. It never
// returns an error to the caller.
func (h *Hub) Publish(userID, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.sessions[userID]
	if len(conns) == 0 {
		return
	}

	msg := Envelope{Event: event, Data: payload}
	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("Dropping websocket session for user %s: %v", userID, err)
			h.dropLocked(userID, conn)
		}
	}
}

func (h *Hub) dropLocked(userID string, conn *websocket.Conn) {
	if conns, ok := h.sessions[userID]; ok {
		if conns[conn] {
			delete(conns, conn)
			conn.Close()
		}
		if len(conns) == 0 {
			delete(h.sessions, userID)
		}
	}
}
