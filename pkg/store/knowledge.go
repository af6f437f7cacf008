package store

import "time"

// ChunkMetadata describes where a knowledge chunk came from.
type ChunkMetadata struct {
	Source     string    `json:"source"`
	ChunkIndex int       `json:"chunk_index"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// KnowledgeChunk is a bounded, possibly overlapping segment of corpus text.
// Immutable after creation; consulted only through the retrieval engine.
type KnowledgeChunk struct {
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}
