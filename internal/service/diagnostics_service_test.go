package service

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	sessionmem "sales-research-be/internal/repository/memory"
	"sales-research-be/pkg/ai/router"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/rag/retriever"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/store"
	"sales-research-be/pkg/websearch"

	"github.com/stretchr/testify/assert"
)

func newTestDiagnostics(t *testing.T) IDiagnosticsService {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	engine := retriever.NewEngine(
		vectorstore.NewMemoryStore(),
		nil,
		corpus.NewLoader(nil, logger),
		retriever.DefaultConfig(),
		logger,
	)
	breaker := router.NewCircuitBreaker(5*time.Minute, nil)
	chain := websearch.NewChain(nil, websearch.DefaultConfig(), logger)
	sessionRepo := sessionmem.NewSessionRepository()
	sessionRepo.Save(&store.Session{ID: "s1", UserID: "u1"})

	return NewDiagnosticsService(engine, breaker, chain, sessionRepo,
		filepath.Join(t.TempDir(), "diagnostics.jsonl"))
}

func TestDiagnosticsHealth(t *testing.T) {
	ds := newTestDiagnostics(t)

	health := ds.Health(context.Background())

	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "UNINITIALIZED", health.RetrievalState)
	assert.False(t, health.ClassifierOpen)
	assert.Equal(t, 1, health.ActiveSessions)
	assert.Equal(t, 0, health.SearchProviders)
}

func TestDiagnosticsRejectionTrail(t *testing.T) {
	ds := newTestDiagnostics(t)

	// Empty trail reads as empty, not as an error
	records, err := ds.RecentRejections(10)
	assert.NoError(t, err)
	assert.Empty(t, records)

	ds.RecordRejection("how do I bake bread", 95, "cooking")
	ds.RecordRejection("movie recommendations", 90, "entertainment")
	ds.RecordRejection("celebrity gossip", 88, "entertainment")

	records, err = ds.RecentRejections(2)
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "celebrity gossip", records[0].Query)
	assert.Equal(t, "movie recommendations", records[1].Query)
	assert.Equal(t, 88, records[0].Confidence)
}

func TestDiagnosticsRejectionTrailUnlimited(t *testing.T) {
	ds := newTestDiagnostics(t)

	ds.RecordRejection("q1", 90, "r1")
	ds.RecordRejection("q2", 91, "r2")

	records, err := ds.RecentRejections(0)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
}
