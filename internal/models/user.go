package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents a registered account.
// Matching never exposes anything beyond the username and school; the rest
// stays on the profile.
type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	Email          string `gorm:"uniqueIndex" json:"email"`
	HashedPassword string `gorm:"not null" json:"-"`
	// School is the affiliation tag that scopes matching eligibility.
	School string `gorm:"index" json:"school"`
	// Interests are free-form profile tags, stored as a PostgreSQL array.
	Interests pq.StringArray `gorm:"type:text[]" json:"interests,omitempty"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is unset.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Ref returns the lightweight reference the broker works with.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, School: u.School}
}
