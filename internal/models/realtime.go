package models

import "time"

// UserRef is the identity slice of a user that the matching core needs.
// It is owned by the identity layer and only ever referenced by the broker.
type UserRef struct {
	ID       string `json:"-"`
	Username string `json:"username"`
	School   string `json:"school"`
}

// Message is a single chat message inside an active session.
// Immutable once appended.
type Message struct {
	Content        string    `json:"content"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Event types pushed to connected websocket clients by the relay.
const (
	EventMatched      = "matched"
	EventMessage      = "message"
	EventSessionEnded = "session_ended"
)

// Event is a realtime notification about session activity.
type Event struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Partner   string   `json:"partner,omitempty"`
	Message   *Message `json:"message,omitempty"`
}
