package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolchat/backend/internal/broker"
)

type startChatRequest struct {
	School string `json:"school" binding:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// brokerError maps a broker error to its HTTP status and writes it.
func brokerError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, broker.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, broker.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, broker.ErrAlreadyInChat),
		errors.Is(err, broker.ErrPartnerOffline),
		errors.Is(err, broker.ErrAlreadyPaired),
		errors.Is(err, broker.ErrSessionNotActive):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StartChat matches the user with a waiting schoolmate or enqueues them.
func (h *Handler) StartChat(c *gin.Context) {
	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)

	banned, err := h.Storage.IsUserBanned(user.ID)
	if err != nil {
		log.Printf("ERROR: ban check failed for %s: %v", user.ID, err)
	}
	if banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are banned from matching"})
		return
	}

	result, err := h.Broker.StartChat(user.Ref(), req.School)
	if err != nil {
		if errors.Is(err, broker.ErrAlreadyPaired) {
			h.Alerts.Alert("pairing invariant violation for user %s: %v", user.Username, err)
		}
		brokerError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendMessage relays a message into the user's active session.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	msg, err := h.Broker.SendMessage(c.Param("chat_id"), user.Ref(), req.Content)
	if err != nil {
		brokerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "message": msg})
}

// GetMessages returns the session transcript plus partner liveness.
func (h *Handler) GetMessages(c *gin.Context) {
	user := currentUser(c)
	transcript, err := h.Broker.GetMessages(c.Param("chat_id"), user.Ref())
	if err != nil {
		brokerError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcript)
}

// LeaveChat ends the session for both sides.
func (h *Handler) LeaveChat(c *gin.Context) {
	user := currentUser(c)
	if err := h.Broker.LeaveChat(c.Param("chat_id"), user.Ref()); err != nil {
		brokerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// WaitingStatus reports whether the user is waiting, chatting, or neither.
func (h *Handler) WaitingStatus(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, h.Broker.Status(user.Ref()))
}

// UpdateStatus is the explicit heartbeat endpoint.
func (h *Handler) UpdateStatus(c *gin.Context) {
	h.Broker.Heartbeat(currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// OnlineUsers counts how many users of a school are currently online.
func (h *Handler) OnlineUsers(c *gin.Context) {
	school := c.Param("school")

	ids, err := h.Storage.UserIDsBySchool(school)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list school users"})
		return
	}

	h.Broker.Heartbeat(currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{
		"school":       school,
		"online_users": h.Broker.OnlineCount(ids),
	})
}

// SystemStatus reports broker counters.
func (h *Handler) SystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Broker.SystemStatus())
}
