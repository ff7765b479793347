package model

import (
	"time"

	"gorm.io/gorm"
)

// ChatSession uses a client-supplied opaque string id. DocumentId holds the
// session's active document ("general" when the chat is not anchored to one).
type ChatSession struct {
	Id         string         `gorm:"type:text;primaryKey"`
	DocumentId string         `gorm:"type:text;not null;default:'general'"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
