package models

import "time"

// SessionRecord is the durable mirror of a chat session in PostgreSQL.
// The broker's in-memory registry is authoritative while the process lives;
// these rows exist for history and operational recovery only.
type SessionRecord struct {
	SessionID string `gorm:"primaryKey"`
	User1ID   string `gorm:"index"`
	User2ID   string `gorm:"index"`
	School    string
	IsActive  bool
	StartedAt time.Time
	EndedAt   time.Time
}
