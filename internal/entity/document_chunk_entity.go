package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk carries a back-reference to its owning document and the
// source filename so retrieval results can be attributed.
type DocumentChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	Filename       string
	Content        string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
