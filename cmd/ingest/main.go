package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"sales-research-be/internal/bootstrap"
	"sales-research-be/internal/config"
	"sales-research-be/internal/dto"
	"sales-research-be/internal/repository/specification"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/internal/service"
	"sales-research-be/pkg/database"
	"sales-research-be/pkg/embedding"
	"sales-research-be/pkg/embedding/jina"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
)

// Indexes documents into the knowledge base from the command line,
// running the same consumer the server runs.
//
// Usage: go run ./cmd/ingest [-source name] [-wait 60s] file [file...]
func main() {
	sourceFlag := flag.String("source", "", "override the source name (single file only)")
	waitFlag := flag.Duration("wait", 60*time.Second, "how long to wait for indexing to finish")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		color.Red("Usage: ingest [-source name] [-wait 60s] file [file...]")
		os.Exit(1)
	}
	if *sourceFlag != "" && len(files) > 1 {
		color.Red("Error: -source can only be used with a single file")
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}
	uowFactory := unitofwork.NewRepositoryFactory(db)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	consumer := service.NewConsumerService(
		pubSub,
		bootstrap.IngestTopicName,
		uowFactory,
		newEmbeddingProvider(cfg),
		cfg.Retrieval.ChunkSize,
		cfg.Retrieval.ChunkOverlap,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *waitFlag)
	defer cancel()

	if err := consumer.Consume(ctx); err != nil {
		color.Red("Error: Failed to start consumer: %v", err)
		os.Exit(1)
	}

	sources := make([]string, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			color.Red("Error: Failed to read %s: %v", path, err)
			os.Exit(1)
		}

		source := filepath.Base(path)
		if *sourceFlag != "" {
			source = *sourceFlag
		}

		payload, _ := json.Marshal(dto.PublishIndexDocumentMessage{
			Source:  source,
			Content: string(content),
		})
		if err := pubSub.Publish(bootstrap.IngestTopicName, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			color.Red("Error: Failed to publish %s: %v", source, err)
			os.Exit(1)
		}

		color.Cyan("Queued %s (%d bytes)", source, len(content))
		sources = append(sources, source)
	}

	// Indexing happens off the publish path. Poll until every source has
	// chunks in the database or the wait budget runs out.
	uow := uowFactory.NewUnitOfWork(ctx)
	pending := make(map[string]bool, len(sources))
	for _, s := range sources {
		pending[s] = true
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			for s := range pending {
				color.Yellow("Timed out waiting for %s", s)
			}
			os.Exit(1)
		case <-ticker.C:
			for s := range pending {
				count, err := uow.KnowledgeChunkRepository().Count(ctx, specification.BySource{Source: s})
				if err != nil {
					log.Printf("[WARN] Failed to count chunks for %s: %v", s, err)
					continue
				}
				if count > 0 {
					color.Green("Indexed %s (%d chunks)", s, count)
					delete(pending, s)
				}
			}
		}
	}

	color.Green("Done.")
}

func newEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}
