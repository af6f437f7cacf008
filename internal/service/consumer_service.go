package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"sales-research-be/internal/dto"
	"sales-research-be/internal/entity"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/pkg/embedding"
	"sales-research-be/pkg/rag/corpus"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService indexes knowledge-base documents off the request path.
// Each message carries one document; indexing replaces the document's
// previous chunks atomically.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	chunkSize         int
	chunkOverlap      int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	chunkSize, chunkOverlap int,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	if payload.Source == "" || payload.Content == "" {
		log.Printf("[ERROR] Index message missing source or content")
		msg.Ack()
		return
	}

	log.Printf("[INFO] Indexing document %s (content length: %d)", payload.Source, len(payload.Content))

	cleaned := corpus.Preprocess(payload.Content)
	chunks := corpus.SplitText(cleaned, cs.chunkSize, cs.chunkOverlap)
	log.Printf("[INFO] Document split into %d chunks", len(chunks))

	now := time.Now()
	newChunks := make([]*entity.KnowledgeChunk, 0, len(chunks))

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			if embedding.IsUnavailable(err) {
				// Index without vectors, lexical search still covers them
				log.Printf("[WARN] Embedding unavailable, indexing chunk %d of %s without vector", i, payload.Source)
				newChunks = append(newChunks, &entity.KnowledgeChunk{
					Id:         uuid.New(),
					Content:    chunk,
					Source:     payload.Source,
					ChunkIndex: i,
					IndexedAt:  now,
					CreatedAt:  now,
				})
				continue
			}
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of %s: %v", i, payload.Source, err)
			msg.Nack()
			return
		}

		newChunks = append(newChunks, &entity.KnowledgeChunk{
			Id:         uuid.New(),
			Content:    chunk,
			Source:     payload.Source,
			ChunkIndex: i,
			Embedding:  res.Embedding.Values,
			IndexedAt:  now,
			CreatedAt:  now,
		})
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.KnowledgeChunkRepository().DeleteBySource(ctx, payload.Source); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks for %s: %v", payload.Source, err)
		msg.Nack()
		return
	}

	if len(newChunks) > 0 {
		if err := uow.KnowledgeChunkRepository().CreateBatch(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create chunks: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document indexed: %d chunks for %s", len(newChunks), payload.Source)
	msg.Ack()
}
