package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is immutable after ingestion.
type Document struct {
	Id        uuid.UUID
	Filename  string
	SizeBytes int64
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
