package models

import "time"

// Session is a server-side login session referenced by the opaque token held
// in the client's session cookie. The cookie itself never expires; expiry is
// enforced here and sessions are invalidated server-side on logout.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:32;not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Expired reports whether the session has passed its server-side expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
