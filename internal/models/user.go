// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered bugbook account. IDs are opaque high-entropy
// strings generated at signup rather than database sequences, so they can be
// shared verbatim with the external chat service.
type User struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	Username     string    `gorm:"size:30;not null;uniqueIndex:idx_users_username_lower,expression:lower(username)" json:"username"`
	Email        string    `gorm:"size:254;not null;uniqueIndex:idx_users_email_lower,expression:lower(email)" json:"email"`
	DisplayName  string    `gorm:"size:64;not null" json:"displayName"`
	PasswordHash string    `gorm:"not null" json:"-"`
	AvatarURL    *string   `gorm:"size:500" json:"avatarUrl"`
	GoogleID     *string   `gorm:"size:64;index" json:"googleId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Posts        []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}
