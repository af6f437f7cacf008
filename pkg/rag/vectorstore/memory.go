package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"sales-research-be/pkg/store"
)

// MemoryStore is the default in-memory vector store. Contents live for the
// process lifetime only.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []store.KnowledgeChunk
}

var _ VectorStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(ctx context.Context, chunks []store.KnowledgeChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *MemoryStore) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]ScoredChunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		scored = append(scored, ScoredChunk{
			Chunk:      chunk,
			Similarity: CosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (m *MemoryStore) All(ctx context.Context) ([]store.KnowledgeChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.KnowledgeChunk, len(m.chunks))
	copy(out, m.chunks)
	return out, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	return nil
}

// CosineSimilarity computes similarity between two vectors. Mismatched
// dimensions score zero rather than erroring; a degraded score is safer
// than a failed search.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
