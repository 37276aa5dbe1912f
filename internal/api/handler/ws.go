package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"schoolchat/backend/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend domain is fixed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers the user for
// realtime pushes. Every inbound frame from the socket counts as a
// heartbeat, so an open tab keeps the user online.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := relay.NewWebSocketClient(user.ID, conn, h.Hub, h.Broker.Heartbeat)
	h.Hub.RegisterCh <- client
	client.Run()
}
