package research

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/store"
)

type fakeSearcher struct {
	results map[string][]store.SearchResult
	queries []string
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if hits, ok := f.results[query]; ok {
		return hits, nil
	}
	return []store.SearchResult{{
		Content: "Generic content about " + query,
		URL:     "https://example.com/" + strings.ReplaceAll(query, " ", "-"),
		Title:   "Result for " + query,
	}}, nil
}

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

type collectingEmitter struct {
	events []StreamEvent
}

func (c *collectingEmitter) Emit(e StreamEvent) { c.events = append(c.events, e) }

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testModels() *modelrouter.Router {
	return modelrouter.NewRouter(modelrouter.Config{
		FastModel: "fast-1", StandardModel: "standard-1", HighModel: "high-1", DeepResearchModel: "deep-1",
	})
}

func newTestAgent(searcher Searcher, provider llm.LLMProvider) *Agent {
	return NewAgent(searcher, nil, provider, testModels(), nil, nil, DefaultConfig(), discardLogger())
}

func TestResearchOpenTaskUsesRawQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "Synthesized answer with citations."}

	agent := newTestAgent(searcher, provider)
	result := agent.Research(context.Background(), "what is acme up to", Options{UseWeb: true}, nil)

	if len(searcher.queries) != 1 || searcher.queries[0] != "what is acme up to" {
		t.Errorf("executed queries = %v, want the raw query once", searcher.queries)
	}
	if result.Answer != "Synthesized answer with citations." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.TaskType != store.TaskOpenResearch {
		t.Errorf("TaskType = %q, want %q", result.TaskType, store.TaskOpenResearch)
	}
	if len(result.Sources) == 0 {
		t.Error("result must carry sources from the search hits")
	}
}

func TestResearchCompanyAnalysisRunsTemplateBattery(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "Company profile."}

	agent := newTestAgent(searcher, provider)
	result := agent.Research(context.Background(), "Acme Corp", Options{UseWeb: true, TaskType: store.TaskCompanyAnalysis}, nil)

	if len(searcher.queries) < 4 {
		t.Errorf("executed %d queries, want the template battery", len(searcher.queries))
	}
	foundCompetitors := false
	for _, q := range searcher.queries {
		if strings.Contains(q, "competitors") {
			foundCompetitors = true
		}
	}
	if !foundCompetitors {
		t.Errorf("queries = %v, want a competitors query", searcher.queries)
	}
	if len(result.SearchQueries) != len(searcher.queries) {
		t.Errorf("SearchQueries = %d entries, want %d", len(result.SearchQueries), len(searcher.queries))
	}
}

func TestResearchNeverReturnsNilOnSynthesisFailure(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{err: errors.New("model down")}

	agent := newTestAgent(searcher, provider)
	result := agent.Research(context.Background(), "anything", Options{UseWeb: true}, nil)

	if result == nil {
		t.Fatal("Research() must never return nil")
	}
	if result.Answer == "" {
		t.Error("degraded result must carry an apologetic answer")
	}
	if len(result.Sources) != 0 {
		t.Errorf("degraded result sources = %v, want empty", result.Sources)
	}
	if len(result.SearchQueries) == 0 {
		t.Error("degraded result must still report executed queries")
	}
}

func TestResearchSearchFailuresDegradeGracefully(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("network down")}
	provider := &fakeLLM{response: "Answer from general knowledge."}

	agent := newTestAgent(searcher, provider)
	result := agent.Research(context.Background(), "acme competitors", Options{UseWeb: true, TaskType: store.TaskCompanyAnalysis}, nil)

	if result.Answer == "" {
		t.Error("synthesis must still run over empty context")
	}
	if len(result.DetailedSources) != 0 {
		t.Errorf("DetailedSources = %v, want empty when every search failed", result.DetailedSources)
	}
}

func TestResearchCancellation(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "should not matter"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := newTestAgent(searcher, provider)
	result := agent.Research(ctx, "Acme Corp", Options{UseWeb: true, TaskType: store.TaskCompanyAnalysis}, nil)

	if len(searcher.queries) != 0 {
		t.Errorf("executed %d searches after cancellation, want 0", len(searcher.queries))
	}
	if result == nil || result.Answer == "" {
		t.Error("cancelled research must still return a degraded result")
	}
}

func TestResearchEmitsLifecycleEvents(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "Answer."}
	emitter := &collectingEmitter{}

	agent := newTestAgent(searcher, provider)
	agent.Research(context.Background(), "open question", Options{UseWeb: true}, emitter)

	var sawResult, sawComplete bool
	for _, e := range emitter.events {
		switch e.Type {
		case EventResult:
			sawResult = true
		case EventComplete:
			sawComplete = true
		}
	}
	if !sawResult || !sawComplete {
		t.Errorf("events = %+v, want result and complete events", emitter.events)
	}
}

type fakeIndexer struct {
	indexed [][]store.KnowledgeChunk
	hits    []store.SearchResult
}

func (f *fakeIndexer) Index(ctx context.Context, chunks []store.KnowledgeChunk) error {
	f.indexed = append(f.indexed, chunks)
	return nil
}

func (f *fakeIndexer) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	return f.hits, nil
}

func TestResearchWebDisabledSkipsSearches(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "Answer from internal knowledge."}
	indexer := &fakeIndexer{hits: []store.SearchResult{{
		Content: "Starter plan costs 29 dollars per month.",
		URL:     "kb://faq/0",
		Title:   "faq",
	}}}

	agent := NewAgent(searcher, indexer, provider, testModels(), nil, nil, DefaultConfig(), discardLogger())
	result := agent.Research(context.Background(), "what does the starter plan cost", Options{UseWeb: false, UseRAG: true}, nil)

	if len(searcher.queries) != 0 {
		t.Errorf("executed %d web searches with web disabled, want 0", len(searcher.queries))
	}
	if result.Answer != "Answer from internal knowledge." {
		t.Errorf("Answer = %q, want synthesis over retrieval context only", result.Answer)
	}
	if len(result.SearchQueries) != 0 {
		t.Errorf("SearchQueries = %v, want none", result.SearchQueries)
	}
}

func TestResearchIndexesCapturedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html><body><h1>Acme pricing</h1><p>Plans start at 29 dollars per month.</p></body></html>")
	}))
	defer server.Close()

	searcher := &fakeSearcher{results: map[string][]store.SearchResult{
		"acme pricing": {{Content: "Acme pricing overview", URL: server.URL, Title: "Acme"}},
	}}
	provider := &fakeLLM{response: "Answer."}
	indexer := &fakeIndexer{}

	cfg := DefaultConfig()
	cfg.CaptureTopN = 1
	agent := NewAgent(searcher, indexer, provider, testModels(), nil, NewPageCapture(), cfg, discardLogger())

	agent.Research(context.Background(), "acme pricing", Options{UseWeb: true, IndexResults: true}, nil)

	if len(indexer.indexed) != 1 {
		t.Fatalf("indexed %d pages, want 1", len(indexer.indexed))
	}
	chunks := indexer.indexed[0]
	if len(chunks) == 0 {
		t.Fatal("captured page produced no chunks")
	}
	if !strings.Contains(chunks[0].Content, "29 dollars") {
		t.Errorf("chunk content = %q, want the page body as markdown", chunks[0].Content)
	}
	if chunks[0].Metadata.Source != server.URL {
		t.Errorf("chunk source = %q, want the page URL", chunks[0].Metadata.Source)
	}
}

func TestResearchSkipsCaptureWhenDisabled(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{response: "Answer."}
	indexer := &fakeIndexer{}

	agent := NewAgent(searcher, indexer, provider, testModels(), nil, NewPageCapture(), DefaultConfig(), discardLogger())
	agent.Research(context.Background(), "acme pricing", Options{UseWeb: true, IndexResults: false}, nil)

	if len(indexer.indexed) != 0 {
		t.Errorf("indexed %d pages with capture disabled, want 0", len(indexer.indexed))
	}
}

func TestDetailedSourcesOf(t *testing.T) {
	results := []store.SearchResult{
		{URL: "https://www.example.com/a", Title: "A", Snippet: "s"},
		{URL: "https://www.example.com/a", Title: "A dup"},
		{URL: "placeholder://search-degraded/1", Title: "Synthetic"},
		{URL: "", Title: "No URL"},
		{URL: "https://other.org/b", Title: "B"},
	}

	sources := DetailedSourcesOf(results)

	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Domain != "example.com" {
		t.Errorf("Domain = %q, want www. stripped", sources[0].Domain)
	}
	if sources[1].Domain != "other.org" {
		t.Errorf("Domain = %q, want other.org", sources[1].Domain)
	}
}
