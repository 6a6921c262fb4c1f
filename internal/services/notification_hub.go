package services

import (
	"sync"

	"saaskit/pkg/logger"

	"github.com/gorilla/websocket"
)

// NotificationHub tracks live websocket connections per user so new
// notifications and unread-count changes reach any open mailbox view
// immediately.
type NotificationHub struct {
	mu          sync.RWMutex
	connections map[uint]map[*websocket.Conn]bool
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		connections: make(map[uint]map[*websocket.Conn]bool),
	}
}

var (
	globalHub     *NotificationHub
	globalHubOnce sync.Once
)

// GetNotificationHub returns the process-wide hub
func GetNotificationHub() *NotificationHub {
	globalHubOnce.Do(func() {
		globalHub = NewNotificationHub()
	})
	return globalHub
}

// Register attaches a connection to a user's stream
func (h *NotificationHub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*websocket.Conn]bool)
	}
	h.connections[userID][conn] = true
}

// Unregister detaches a connection; the caller closes it
func (h *NotificationHub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.connections[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, userID)
		}
	}
}

// Send pushes a JSON payload to every open connection of the user.
// Dead connections are dropped silently; delivery here is best effort,
// the persisted record is the source of truth.
func (h *NotificationHub) Send(userID uint, payload interface{}) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.connections[userID]))
	for conn := range h.connections[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			logger.GetLogger().WithError(err).Debug("Dropping dead notification connection")
			h.Unregister(userID, conn)
			conn.Close()
		}
	}
}
