package vector

import (
	"context"
	"time"

	"sales-research-be/internal/entity"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/store"

	"github.com/google/uuid"
)

// Store adapts the knowledge-chunk repository to the retrieval engine's
// vector store interface, so indexed chunks survive restarts. Adding
// chunks for a source replaces that source's previous chunks, which keeps
// corpus reloads and page re-captures idempotent.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ vectorstore.VectorStore = &Store{}

func NewStore(uowFactory unitofwork.RepositoryFactory) *Store {
	return &Store{uowFactory: uowFactory}
}

func (s *Store) Add(ctx context.Context, chunks []store.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now()
	seen := make(map[string]bool)
	var sources []string
	ents := make([]*entity.KnowledgeChunk, 0, len(chunks))
	for _, c := range chunks {
		if !seen[c.Metadata.Source] {
			seen[c.Metadata.Source] = true
			sources = append(sources, c.Metadata.Source)
		}
		indexedAt := c.Metadata.IndexedAt
		if indexedAt.IsZero() {
			indexedAt = now
		}
		ents = append(ents, &entity.KnowledgeChunk{
			Id:         uuid.New(),
			Content:    c.Content,
			Source:     c.Metadata.Source,
			ChunkIndex: c.Metadata.ChunkIndex,
			Embedding:  c.Embedding,
			IndexedAt:  indexedAt,
			CreatedAt:  now,
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for _, source := range sources {
		if err := uow.KnowledgeChunkRepository().DeleteBySource(ctx, source); err != nil {
			return err
		}
	}
	if err := uow.KnowledgeChunkRepository().CreateBatch(ctx, ents); err != nil {
		return err
	}
	return uow.Commit()
}

// SearchSimilar delegates ranking to pgvector. The threshold is zero here;
// the engine applies its own similarity cutoff.
func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]vectorstore.ScoredChunk, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, embedding, topK, 0)
	if err != nil {
		return nil, err
	}

	out := make([]vectorstore.ScoredChunk, 0, len(scored))
	for _, sc := range scored {
		out = append(out, vectorstore.ScoredChunk{
			Chunk:      toStoreChunk(sc.Chunk),
			Similarity: sc.Similarity,
		})
	}
	return out, nil
}

func (s *Store) All(ctx context.Context) ([]store.KnowledgeChunk, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ents, err := uow.KnowledgeChunkRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]store.KnowledgeChunk, 0, len(ents))
	for _, e := range ents {
		out = append(out, toStoreChunk(e))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.KnowledgeChunkRepository().Count(ctx)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) Reset(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.KnowledgeChunkRepository().DeleteAll(ctx); err != nil {
		return err
	}
	return uow.Commit()
}

func toStoreChunk(e *entity.KnowledgeChunk) store.KnowledgeChunk {
	return store.KnowledgeChunk{
		Content:   e.Content,
		Embedding: e.Embedding,
		Metadata: store.ChunkMetadata{
			Source:     e.Source,
			ChunkIndex: e.ChunkIndex,
			IndexedAt:  e.IndexedAt,
		},
	}
}
