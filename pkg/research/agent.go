package research

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/store"
)

// Searcher is the web-search dependency. The provider chain satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error)
}

// Indexer is the retrieval-engine dependency, optional for the agent.
type Indexer interface {
	Index(ctx context.Context, chunks []store.KnowledgeChunk) error
	Search(ctx context.Context, query string) ([]store.SearchResult, error)
}

// Options steer one research invocation.
type Options struct {
	UseWeb   bool
	UseRAG   bool
	TaskType string
	// Profile bias from the session's user (industry/region targeting)
	Industry string
	Region   string
	// IndexResults captures top result pages into the retrieval engine
	// for future turns.
	IndexResults bool
	Policy       modelrouter.Policy
}

// Config encapsulates agent parameters
type Config struct {
	MaxQueries         int // total dedup cap across all targets
	MaxResultsPerQuery int
	MaxContextChars    int
	TinyContextChars   int // below this the prompt flags "rely on general knowledge"
	CaptureTopN        int
	ChunkSize          int
	ChunkOverlap       int
}

// DefaultConfig returns default agent configuration
func DefaultConfig() Config {
	return Config{
		MaxQueries:         8,
		MaxResultsPerQuery: 5,
		MaxContextChars:    12000,
		TinyContextChars:   400,
		CaptureTopN:        2,
		ChunkSize:          1500,
		ChunkOverlap:       200,
	}
}

// Agent plans multi-query research, executes it through the search chain
// and synthesizes a cited answer. It never returns an error: every failure
// mode degrades to an apologetic result with empty sources.
type Agent struct {
	searcher    Searcher
	indexer     Indexer // may be nil
	llmProvider llm.LLMProvider
	models      *modelrouter.Router
	planner     *Planner
	capture     *PageCapture // may be nil
	cfg         Config
	logger      *log.Logger
}

func NewAgent(
	searcher Searcher,
	indexer Indexer,
	llmProvider llm.LLMProvider,
	models *modelrouter.Router,
	planner *Planner,
	capture *PageCapture,
	cfg Config,
	logger *log.Logger,
) *Agent {
	return &Agent{
		searcher:    searcher,
		indexer:     indexer,
		llmProvider: llmProvider,
		models:      models,
		planner:     planner,
		capture:     capture,
		cfg:         cfg,
		logger:      logger,
	}
}

// Research runs one research invocation. Searches execute sequentially on
// purpose: provider rate limits and usage accounting depend on it.
func (a *Agent) Research(ctx context.Context, query string, opts Options, emit Emitter) *store.ResearchResult {
	if emit == nil {
		emit = NopEmitter()
	}
	if opts.TaskType == "" {
		opts.TaskType = store.TaskOpenResearch
	}

	var results []store.SearchResult
	var executed []string

	if opts.UseWeb {
		queries := a.buildQueries(ctx, query, opts)
		emit.Emit(StreamEvent{Type: EventLog, Message: fmt.Sprintf("Planned %d search queries", len(queries))})

		for _, q := range queries {
			if ctx.Err() != nil {
				// Cancelled: stop eagerly, no orphaned searches
				a.logger.Printf("[RESEARCH] Cancelled after %d queries", len(executed))
				emit.Emit(StreamEvent{Type: EventError, Message: "research cancelled"})
				return a.degradedResult(query, opts.TaskType, executed)
			}

			emit.Emit(StreamEvent{Type: EventLog, Message: "Searching: " + q})
			hits, err := a.searcher.Search(ctx, q, a.cfg.MaxResultsPerQuery)
			if err != nil {
				a.logger.Printf("[RESEARCH] Search failed for %q: %v", q, err)
				executed = append(executed, q)
				continue
			}
			executed = append(executed, q)
			results = append(results, hits...)

			if sources := DetailedSourcesOf(hits); len(sources) > 0 {
				emit.Emit(StreamEvent{Type: EventSources, Sources: sources})
			}
		}

		results = dedupeByURL(results)
	} else {
		emit.Emit(StreamEvent{Type: EventLog, Message: "Web search disabled for this run"})
	}

	if opts.IndexResults && a.indexer != nil && a.capture != nil {
		a.captureTopResults(ctx, results)
	}

	ragContext := a.ragContext(ctx, query, opts)

	answer, err := a.synthesize(ctx, query, results, ragContext, opts)
	if err != nil {
		a.logger.Printf("[RESEARCH] Synthesis failed: %v", err)
		emit.Emit(StreamEvent{Type: EventError, Message: "synthesis unavailable"})
		return a.degradedResult(query, opts.TaskType, executed)
	}

	detailed := DetailedSourcesOf(results)
	sources := make([]string, 0, len(detailed))
	for _, s := range detailed {
		sources = append(sources, s.URL)
	}

	emit.Emit(StreamEvent{Type: EventResult, Answer: answer})
	emit.Emit(StreamEvent{Type: EventComplete})

	return &store.ResearchResult{
		Answer:          answer,
		Sources:         sources,
		DetailedSources: detailed,
		SearchQueries:   executed,
		Timestamp:       time.Now(),
		TaskType:        opts.TaskType,
	}
}

func (a *Agent) buildQueries(ctx context.Context, query string, opts Options) []string {
	switch opts.TaskType {
	case store.TaskLeadGeneration:
		if a.planner != nil {
			return a.planner.PlanQueries(ctx, query, opts.Industry, opts.Region, a.cfg.MaxQueries)
		}
		return dedupeQueries(TemplateQueries(opts.TaskType, query, opts.Industry, opts.Region), a.cfg.MaxQueries)
	case store.TaskCompanyAnalysis, store.TaskICPDevelopment:
		return dedupeQueries(TemplateQueries(opts.TaskType, query, opts.Industry, opts.Region), a.cfg.MaxQueries)
	default:
		// Open research searches with the raw query
		return []string{query}
	}
}

func (a *Agent) ragContext(ctx context.Context, query string, opts Options) []store.SearchResult {
	if !opts.UseRAG || a.indexer == nil {
		return nil
	}
	hits, err := a.indexer.Search(ctx, query)
	if err != nil {
		a.logger.Printf("[RESEARCH] RAG context unavailable: %v", err)
		return nil
	}
	return hits
}

func (a *Agent) captureTopResults(ctx context.Context, results []store.SearchResult) {
	captured := 0
	for _, r := range results {
		if captured >= a.cfg.CaptureTopN {
			break
		}
		if strings.HasPrefix(r.URL, "placeholder://") || !strings.HasPrefix(r.URL, "http") {
			continue
		}
		markdown, err := a.capture.Fetch(ctx, r.URL)
		if err != nil {
			a.logger.Printf("[RESEARCH] Page capture failed for %s: %v", r.URL, err)
			continue
		}
		chunks := corpus.Chunk(markdown, r.URL, a.cfg.ChunkSize, a.cfg.ChunkOverlap)
		if err := a.indexer.Index(ctx, chunks); err != nil {
			a.logger.Printf("[RESEARCH] Indexing captured page failed: %v", err)
			continue
		}
		captured++
		a.logger.Printf("[RESEARCH] Captured %s (%d chunks)", r.URL, len(chunks))
	}
}

func (a *Agent) synthesize(ctx context.Context, query string, results []store.SearchResult, ragContext []store.SearchResult, opts Options) (string, error) {
	contextText := buildContext(results, ragContext, a.cfg.MaxContextChars)

	handle := a.models.Route(
		modelrouter.TaskSynthesis,
		modelrouter.AnalyzeComplexity(query),
		opts.Policy,
	)

	var prompt strings.Builder
	prompt.WriteString("You are a business research analyst. Answer the question using the sources below.\n")
	prompt.WriteString("Cite sources inline by their URL or title. Do not invent facts.\n\n")

	if len(contextText) < a.cfg.TinyContextChars {
		prompt.WriteString("NOTE: Very little source material was found. Rely on general domain knowledge, ")
		prompt.WriteString("say what is uncertain, and give actionable guidance instead of fabricated specifics.\n\n")
	}

	prompt.WriteString("Sources:\n")
	prompt.WriteString(contextText)
	prompt.WriteString("\n\nQuestion:\n")
	prompt.WriteString(query)

	return a.llmProvider.Generate(ctx, prompt.String(),
		llm.WithModel(handle.Model),
		llm.WithTemperature(handle.Profile.Temperature),
		llm.WithMaxTokens(handle.Profile.MaxTokens),
	)
}

func (a *Agent) degradedResult(query, taskType string, executed []string) *store.ResearchResult {
	return &store.ResearchResult{
		Answer: "I wasn't able to complete the research for this request right now. " +
			"Please try again in a moment, or narrow the question down.",
		Sources:         []string{},
		DetailedSources: []store.DetailedSource{},
		SearchQueries:   executed,
		Timestamp:       time.Now(),
		TaskType:        taskType,
	}
}

// DetailedSourcesOf converts results into citation display entries,
// deduplicated and filtered to real (non-placeholder) URLs.
func DetailedSourcesOf(results []store.SearchResult) []store.DetailedSource {
	seen := make(map[string]bool)
	var sources []store.DetailedSource
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		if strings.HasPrefix(r.URL, "placeholder://") {
			continue
		}
		seen[r.URL] = true
		sources = append(sources, store.DetailedSource{
			Title:   r.Title,
			URL:     r.URL,
			Domain:  domainOf(r.URL),
			Snippet: r.Snippet,
		})
	}
	return sources
}

func domainOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

func dedupeByURL(results []store.SearchResult) []store.SearchResult {
	seen := make(map[string]bool)
	out := make([]store.SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL != "" && seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

func buildContext(results, ragContext []store.SearchResult, maxChars int) string {
	var sb strings.Builder
	write := func(r store.SearchResult) bool {
		if sb.Len() >= maxChars {
			return false
		}
		entry := fmt.Sprintf("- [%s](%s): %s\n", r.Title, r.URL, r.Content)
		if sb.Len()+len(entry) > maxChars {
			entry = entry[:maxChars-sb.Len()]
		}
		sb.WriteString(entry)
		return true
	}

	for _, r := range ragContext {
		if !write(r) {
			break
		}
	}
	for _, r := range results {
		if !write(r) {
			break
		}
	}
	return sb.String()
}
