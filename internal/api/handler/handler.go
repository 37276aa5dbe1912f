package handler

import (
	"github.com/gin-gonic/gin"

	"schoolchat/backend/internal/alert"
	"schoolchat/backend/internal/broker"
	"schoolchat/backend/internal/relay"
	"schoolchat/backend/internal/storage"
)

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	Broker  *broker.MatchBroker
	Storage storage.Storage
	Hub     *relay.Hub
	Alerts  *alert.Notifier

	JWTSecret  []byte
	AdminToken string
}

// NewHandler wires the endpoint dependencies together.
func NewHandler(b *broker.MatchBroker, s storage.Storage, hub *relay.Hub, alerts *alert.Notifier, jwtSecret []byte, adminToken string) *Handler {
	return &Handler{
		Broker:     b,
		Storage:    s,
		Hub:        hub,
		Alerts:     alerts,
		JWTSecret:  jwtSecret,
		AdminToken: adminToken,
	}
}

// RegisterRoutes attaches every route to the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Health)
	r.POST("/register", h.Register)
	r.POST("/token", h.Login)

	authed := r.Group("/", h.AuthRequired())
	{
		authed.GET("/profile", h.GetProfile)
		authed.POST("/profile/update", h.UpdateProfile)

		authed.POST("/start-chat", h.StartChat)
		authed.POST("/send-message/:chat_id", h.SendMessage)
		authed.GET("/chat-messages/:chat_id", h.GetMessages)
		authed.POST("/leave-chat/:chat_id", h.LeaveChat)
		authed.GET("/waiting-status", h.WaitingStatus)

		authed.POST("/update-status", h.UpdateStatus)
		authed.GET("/online-users/:school", h.OnlineUsers)
		authed.GET("/system-status", h.SystemStatus)

		authed.GET("/ws", h.ServeWebSocket)
	}

	debug := r.Group("/debug", h.AuthRequired(), h.AdminRequired())
	{
		debug.GET("/waiting-users", h.DebugWaitingUsers)
		debug.GET("/active-chats", h.DebugActiveSessions)
		debug.POST("/reset-chat", h.DebugReset)
	}
}

// Health is the root liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
}
