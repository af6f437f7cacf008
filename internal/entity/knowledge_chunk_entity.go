package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeChunk is one indexed slice of the sales knowledge base.
type KnowledgeChunk struct {
	Id         uuid.UUID
	Content    string
	Source     string
	ChunkIndex int
	Embedding  []float32
	IndexedAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
