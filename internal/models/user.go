// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account in the social graph.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;not null" json:"-"`
	Password  string     `gorm:"not null" json:"-"`
	Bio       string     `gorm:"type:text" json:"bio"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

// BeforeCreate assigns the public account identifier and default role.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.AccountID == uuid.Nil {
		u.AccountID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// Principal returns the principal value for this user.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserSummary is the {id, username} pair returned by follow listings.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}
