package models

import "gorm.io/gorm"

// ChatHistory is a persisted chat message. The embedded gorm.Model supplies
// the ID and timestamps.
type ChatHistory struct {
	gorm.Model

	// SessionID is the session the message was sent in.
	SessionID string `gorm:"type:uuid;not null;index:idx_session_msg"`
	// SenderID is the ID of the user who sent the message.
	SenderID string `gorm:"type:text;not null;index:idx_session_msg"`
	// SenderUsername is denormalized so history stays readable after the
	// session's participants are gone.
	SenderUsername string `gorm:"type:text"`
	// Content is the message text.
	Content string `gorm:"type:text;not null"`
}
