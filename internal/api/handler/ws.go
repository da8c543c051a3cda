package handler

import (
	"net/http"
	"strings"

	"lawchat/backend/internal/chathub"
	"lawchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ServeWebSocket upgrades the HTTP connection and attaches the client to the
// hub. A valid token (query param or bearer header) reattaches its anonymous
// id; otherwise the connection gets a fresh one.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.Cfg.ClientURL == "" {
				return true
			}
			return r.Header.Get("Origin") == h.Cfg.ClientURL
		},
	}

	connID := h.connectionID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	client := &chathub.WebSocketClient{
		ID:   connID,
		Conn: conn,
		Hub:  h.Hub,
		Send: make(chan models.Envelope, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}

func (h *Handler) connectionID(c *gin.Context) string {
	tokenString := c.Query("token")
	if tokenString == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenString != "" {
		if anonID, err := h.parseToken(tokenString); err == nil {
			return anonID
		}
	}
	return uuid.NewString()
}
