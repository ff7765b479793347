package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByChatSessionID filters messages by their owning session
type ByChatSessionID struct {
	ChatSessionID string
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ByRole filters messages by author role
type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// CreatedAtAfter filters rows created at or after the given instant.
// Used for the UTC-day quota window.
type CreatedAtAfter struct {
	Time time.Time
}

func (s CreatedAtAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Time)
}
