package service

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/rag/retriever"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/store"

	"github.com/google/uuid"
)

type stubLLM struct {
	response string
	calls    int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, nil
}

func newKbTestService(t *testing.T, provider llm.LLMProvider, cfg AssistantConfig) *assistantService {
	t.Helper()

	corpusPath := filepath.Join(t.TempDir(), "knowledge_base.md")
	content := "The starter plan costs 29 dollars per month. Gardening tips are unrelated content here."
	if err := os.WriteFile(corpusPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	quiet := log.New(io.Discard, "", 0)
	engine := retriever.NewEngine(
		vectorstore.NewMemoryStore(),
		nil,
		corpus.NewLoader([]string{corpusPath}, quiet),
		retriever.Config{ChunkSize: 1000, ChunkOverlap: 100, TopK: 5, MinMatchRatio: 0.3},
		quiet,
	)

	return &assistantService{
		engine: engine,
		models: modelrouter.NewRouter(modelrouter.Config{
			FastModel: "fast-1", StandardModel: "standard-1", HighModel: "high-1", DeepResearchModel: "deep-1",
		}),
		llmProvider: provider,
		cfg:         cfg,
		llmLogger:   quiet,
	}
}

func TestKnowledgeBaseDirectAnswerThreshold(t *testing.T) {
	ctx := context.Background()
	session := &store.Session{ID: "s1"}

	// The query matches 2 of 3 tokens, an extraction confidence around
	// 0.67, so the threshold decides which path serves the reply.
	query := "starter plan price"

	t.Run("low threshold serves extraction without generation", func(t *testing.T) {
		provider := &stubLLM{response: "generated reply"}
		as := newKbTestService(t, provider, AssistantConfig{DirectAnswerMin: 0.5})

		reply, sources := as.handleKnowledgeBase(ctx, uuid.New(), query, session)

		if provider.calls != 0 {
			t.Errorf("model called %d times, want 0 for a direct answer", provider.calls)
		}
		if !strings.Contains(reply, "29 dollars") {
			t.Errorf("reply = %q, want the extracted pricing sentence", reply)
		}
		if sources != nil {
			t.Errorf("direct answers carry no sources, got %v", sources)
		}
	})

	t.Run("high threshold falls through to generation", func(t *testing.T) {
		provider := &stubLLM{response: "generated reply"}
		as := newKbTestService(t, provider, AssistantConfig{DirectAnswerMin: 0.9})

		reply, sources := as.handleKnowledgeBase(ctx, uuid.New(), query, session)

		if provider.calls != 1 {
			t.Errorf("model called %d times, want 1", provider.calls)
		}
		if reply != "generated reply" {
			t.Errorf("reply = %q, want the generated reply", reply)
		}
		if len(sources) == 0 {
			t.Error("generated replies must cite knowledge-base sources")
		}
	})
}
