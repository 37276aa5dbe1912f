package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DebugWaitingUsers lists the waiting pool and active session summaries.
func (h *Handler) DebugWaitingUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"waiting_users": h.Broker.ListWaiting(),
		"active_chats":  h.Broker.ListActiveSessions(),
	})
}

// DebugActiveSessions lists only the active sessions.
func (h *Handler) DebugActiveSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active_chats": h.Broker.ListActiveSessions()})
}

// DebugReset wipes the waiting pool and every session. Operational
// recovery only; live users will find their chats gone.
func (h *Handler) DebugReset(c *gin.Context) {
	h.Broker.Reset()
	h.Alerts.Alert("broker state reset by %s", currentUser(c).Username)
	c.JSON(http.StatusOK, gin.H{"status": "reset_complete"})
}
