package vectorstore

import (
	"context"

	"sales-research-be/pkg/store"
)

// ScoredChunk wraps a knowledge chunk with its similarity score
type ScoredChunk struct {
	Chunk      store.KnowledgeChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// VectorStore holds embedded knowledge chunks and answers nearest-neighbor
// queries. Implementations: in-memory (canonical, ephemeral per process)
// and a Postgres/pgvector-backed store for deployments that want warm
// restarts. Chunks are append-only; no snapshot isolation is guaranteed
// between concurrent readers and writers.
type VectorStore interface {
	Add(ctx context.Context, chunks []store.KnowledgeChunk) error
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error)
	// All returns every stored chunk; the lexical fallback scores these
	// directly without touching embeddings.
	All(ctx context.Context) ([]store.KnowledgeChunk, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}
