package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"sales-research-be/pkg/embedding"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/store"
)

// fakeEmbedder returns a deterministic vector per text so closeness can be
// arranged by reusing prefixes.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, 8)
	for i, r := range text {
		vec[i%8] += float32(r % 31)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vec},
	}, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func writeCorpus(t *testing.T, content string) *corpus.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge_base.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return corpus.NewLoader([]string{path}, discardLogger())
}

const testCorpus = `The starter plan costs 29 dollars per month and includes 1000 contacts.
The professional plan costs 99 dollars per month with unlimited contacts.
Enterprise customers get a dedicated account manager and custom onboarding.
Refunds are available within 30 days of purchase, no questions asked.`

func newTestEngine(t *testing.T, embedder embedding.EmbeddingProvider) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ChunkSize = 120
	cfg.ChunkOverlap = 20
	cfg.SimilarityThreshold = 0 // keep all candidates in tests
	return NewEngine(vectorstore.NewMemoryStore(), embedder, writeCorpus(t, testCorpus), cfg, discardLogger())
}

func TestEngineLazyInitializationAndSearch(t *testing.T) {
	engine := newTestEngine(t, &fakeEmbedder{})

	if engine.State() != StateUninitialized {
		t.Fatalf("State = %s, want UNINITIALIZED before first search", engine.State())
	}

	results, err := engine.Search(context.Background(), "professional plan cost")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if engine.State() != StateReady {
		t.Errorf("State = %s, want READY after successful init", engine.State())
	}
	if engine.ChunkCount() == 0 {
		t.Error("ChunkCount() = 0 after init")
	}
	for _, r := range results {
		if len(r.URL) < 5 || r.URL[:5] != "kb://" {
			t.Errorf("result URL = %q, want kb:// prefix", r.URL)
		}
	}
}

func TestEngineLexicalOnlyWithoutEmbedder(t *testing.T) {
	engine := newTestEngine(t, nil)

	results, err := engine.Search(context.Background(), "refunds within 30 days")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("lexical fallback returned no results")
	}
	if engine.State() != StateDegraded {
		t.Errorf("State = %s, want DEGRADED without embedder", engine.State())
	}
}

func TestEngineDegradesPermanentlyOnQuotaError(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("request failed with status 429: quota exceeded")}
	engine := newTestEngine(t, embedder)

	// Indexing hits the quota error, disables the vector path, and still
	// serves lexical results.
	results, err := engine.Search(context.Background(), "enterprise account manager")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("degraded search returned no results")
	}
	if engine.State() != StateDegraded {
		t.Errorf("State = %s, want DEGRADED after quota failure", engine.State())
	}

	callsAfterFirst := embedder.calls
	if _, err := engine.Search(context.Background(), "starter plan price"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if embedder.calls != callsAfterFirst {
		t.Errorf("embedder calls = %d, want %d (vector path must stay disabled)", embedder.calls, callsAfterFirst)
	}
}

func TestEngineResetEmptiesKnowledgeBase(t *testing.T) {
	engine := newTestEngine(t, &fakeEmbedder{})

	if _, err := engine.Search(context.Background(), "starter plan"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if err := engine.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	_, err := engine.Search(context.Background(), "starter plan")
	if !errors.Is(err, ErrKnowledgeBaseEmpty) {
		t.Errorf("Search() after Reset error = %v, want ErrKnowledgeBaseEmpty", err)
	}
}

func TestEngineIndexAppendsExternalChunks(t *testing.T) {
	engine := newTestEngine(t, &fakeEmbedder{})

	if _, err := engine.Search(context.Background(), "starter plan"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	before := engine.ChunkCount()

	chunks := []store.KnowledgeChunk{
		{Content: "Acme Corp raised a Series B of 40 million dollars in 2025.", Metadata: store.ChunkMetadata{Source: "https://example.com/acme"}},
	}
	if err := engine.Index(context.Background(), chunks); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if engine.ChunkCount() != before+1 {
		t.Errorf("ChunkCount() = %d, want %d", engine.ChunkCount(), before+1)
	}

	results, err := engine.Search(context.Background(), "Acme Series B funding")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	found := false
	for _, r := range results {
		if r.URL == "kb://https://example.com/acme/0" {
			found = true
		}
	}
	if !found {
		t.Error("indexed external chunk not retrievable")
	}
}
