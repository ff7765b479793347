package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id         string
	DocumentId string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId string
	Role          string
	Content       string
	RouterMeta    map[string]interface{}
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
