package handlers

import (
	"net/http"
	"strings"

	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/jwt"
	"saaskit/pkg/logger"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocketHandler streams live notification events to open mailbox
// and indicator views.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	hub        *services.NotificationHub
	jwtManager *jwt.Manager
}

func NewWebSocketHandler(hub *services.NotificationHub) *WebSocketHandler {
	allowedOrigins := config.GetConfig().CORS.AllowOrigins

	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || matchOrigin(origin, allowed) {
						return true
					}
				}
				return false
			},
		},
		hub:        hub,
		jwtManager: jwt.GetManager(),
	}
}

// Notifications upgrades the connection and keeps it registered with
// the hub until the client disconnects. Browsers cannot set headers on
// websocket upgrades, so the token arrives as a query parameter.
func (h *WebSocketHandler) Notifications(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "Please sign in to continue.")
		return
	}
	claims, err := h.jwtManager.VerifyToken(token)
	if err != nil {
		response.Unauthorized(c, "Session is invalid or has expired.")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.hub.Register(claims.UserID, conn)
	defer h.hub.Unregister(claims.UserID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func matchOrigin(origin, allowed string) bool {
	if origin == allowed {
		return true
	}
	// Wildcard subdomain pattern, e.g. https://*.example.com
	if i := strings.Index(allowed, "*"); i >= 0 {
		prefix, suffix := allowed[:i], allowed[i+1:]
		return strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
	}
	return false
}
