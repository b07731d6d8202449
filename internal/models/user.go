package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account known to the complaint desk.
// Students register themselves; teachers and admins are provisioned with the admin CLI.
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string `gorm:"type:text;not null" json:"name"`
	Email        string `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);not null;index" json:"role"`
	// TelegramID links the account to the chat-ops bot. NULL when not linked.
	TelegramID *int64    `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate fills in a UUID for new accounts.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Principal returns the authenticated identity for this user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.Name, Role: u.Role}
}
