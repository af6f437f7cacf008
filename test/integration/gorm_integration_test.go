package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"sales-research-be/internal/entity"
	"sales-research-be/internal/repository/specification"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.KnowledgeChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Knowledge Chunk Repository", func(t *testing.T) {
		count, err := uow.KnowledgeChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Knowledge chunk count: %d", count)
	})

	t.Run("Transactional Session With Messages", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)

		err := txUow.Begin(ctx)
		assert.NoError(t, err)
		defer txUow.Rollback()

		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:        sessionId,
			UserId:    uuid.New(),
			Title:     "Integration Test Session",
			LastQuery: "what do we know about acme.io",
			CreatedAt: time.Now(),
		}
		err = txUow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		msg := &entity.ChatMessage{
			Id:            uuid.New(),
			Content:       "what do we know about acme.io",
			Role:          "user",
			Route:         "research",
			ChatSessionId: sessionId,
			CreatedAt:     time.Now(),
		}
		err = txUow.ChatMessageRepository().Create(ctx, msg)
		assert.NoError(t, err)

		found, err := txUow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: sessionId})
		assert.NoError(t, err)
		assert.Len(t, found, 1)
		assert.Equal(t, "research", found[0].Route)

		// Rollback via defer keeps the test data out of the table
	})
}
