package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"sales-research-be/pkg/embedding"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/store"
)

// ErrKnowledgeBaseEmpty is returned when the corpus produced no chunks
// even after a reload attempt. Callers should report "not found" instead
// of fabricating an answer.
var ErrKnowledgeBaseEmpty = errors.New("knowledge base is empty")

// State is the explicit index lifecycle. The index is never built before
// the first search.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady    // vector path live
	StateDegraded // lexical fallback only
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	case StateDegraded:
		return "DEGRADED"
	default:
		return "UNINITIALIZED"
	}
}

// Config encapsulates retrieval parameters
type Config struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	MinMatchRatio       float64 // lexical: fraction of query tokens required
	SimilarityThreshold float64 // vector: minimum similarity to keep
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		ChunkSize:           1500,
		ChunkOverlap:        200,
		TopK:                5,
		MinMatchRatio:       0.3,
		SimilarityThreshold: 0.35,
	}
}

// Engine answers knowledge-base queries via vector similarity with a
// lexical fallback that is always available.
type Engine struct {
	vectors  vectorstore.VectorStore
	embedder embedding.EmbeddingProvider // nil means lexical-only
	loader   *corpus.Loader
	cfg      Config
	logger   *log.Logger

	mu             sync.Mutex
	state          State
	vectorDisabled bool
	reloadUsed     bool
}

func NewEngine(
	vectors vectorstore.VectorStore,
	embedder embedding.EmbeddingProvider,
	loader *corpus.Loader,
	cfg Config,
	logger *log.Logger,
) *Engine {
	return &Engine{
		vectors:  vectors,
		embedder: embedder,
		loader:   loader,
		cfg:      cfg,
		logger:   logger,
		state:    StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ChunkCount reports how many chunks are currently indexed. Best effort,
// zero on store errors.
func (e *Engine) ChunkCount() int {
	count, err := e.vectors.Count(context.Background())
	if err != nil {
		return 0
	}
	return count
}

// Search runs the primary vector path when available, degrading permanently
// to lexical retrieval on embedding quota/auth failures.
func (e *Engine) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	if err := e.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	count, err := e.vectors.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if count == 0 {
		// One lazy reload attempt, then report empty
		if !e.markReloadUsed() {
			return nil, ErrKnowledgeBaseEmpty
		}
		e.logger.Printf("[RAG] Index empty, attempting one corpus reload")
		e.setState(StateUninitialized)
		if err := e.ensureInitialized(ctx); err != nil {
			return nil, err
		}
		if count, _ = e.vectors.Count(ctx); count == 0 {
			return nil, ErrKnowledgeBaseEmpty
		}
	}

	if e.vectorPathAvailable() {
		results, err := e.vectorSearch(ctx, query)
		if err == nil {
			return results, nil
		}
		// Quota/auth or uninitialized-index errors disable the vector
		// path for the remainder of the process lifetime
		e.logger.Printf("[RAG] Vector path failed, switching to lexical permanently: %v", err)
		e.disableVectorPath()
	}

	return e.lexicalSearch(ctx, query)
}

// DirectAnswer extracts a compact answer from the best fallback chunks,
// bypassing any model call. The boolean reports whether confidence was
// sufficient.
func (e *Engine) DirectAnswer(ctx context.Context, query string, minConfidence float64) (string, float64, error) {
	results, err := e.Search(ctx, query)
	if err != nil {
		return "", 0, err
	}
	answer, confidence := ExtractDirectAnswer(results, query, 3)
	if confidence < minConfidence {
		return "", confidence, nil
	}
	return answer, confidence, nil
}

// Index appends external content (e.g. captured research pages) to the
// knowledge index. Chunks are embedded when the vector path is live.
func (e *Engine) Index(ctx context.Context, chunks []store.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if e.vectorPathAvailable() {
		for i := range chunks {
			if len(chunks[i].Embedding) > 0 {
				continue
			}
			res, err := e.embedder.Generate(chunks[i].Content, embedding.TaskRetrievalDocument)
			if err != nil {
				if embedding.IsUnavailable(err) {
					e.logger.Printf("[RAG] Embedding provider unavailable during indexing: %v", err)
					e.disableVectorPath()
					break
				}
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			chunks[i].Embedding = res.Embedding.Values
		}
	}
	return e.vectors.Add(ctx, chunks)
}

// Reset clears the index for the current process. Best effort; no
// cross-restart persistence is promised, and the engine will not silently
// re-ingest the corpus afterwards.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateUninitialized || e.state == StateReady {
		e.state = StateDegraded
	}
	e.reloadUsed = true // a manual reset forfeits the automatic reload
	e.mu.Unlock()
	return e.vectors.Reset(ctx)
}

// --- internals ---

func (e *Engine) ensureInitialized(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		e.mu.Unlock()
		return nil
	}
	e.state = StateInitializing
	e.mu.Unlock()

	text, source, err := e.loader.Load()
	if err != nil {
		e.logger.Printf("[RAG] Corpus load failed: %v", err)
		e.setState(StateDegraded)
		return nil // empty index is handled by the caller, not fatal here
	}

	chunks := corpus.Chunk(text, source, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	e.logger.Printf("[RAG] Corpus %s split into %d chunks", source, len(chunks))

	if err := e.Index(ctx, chunks); err != nil {
		e.setState(StateDegraded)
		return fmt.Errorf("index corpus: %w", err)
	}

	if e.vectorPathAvailable() {
		e.setState(StateReady)
	} else {
		e.setState(StateDegraded)
	}
	e.logger.Printf("[RAG] Index initialized, state=%s", e.State())
	return nil
}

func (e *Engine) vectorSearch(ctx context.Context, query string) ([]store.SearchResult, error) {
	res, err := e.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := e.vectors.SearchSimilar(ctx, res.Embedding.Values, e.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	var results []store.SearchResult
	for i, sc := range scored {
		if sc.Similarity < e.cfg.SimilarityThreshold {
			e.logger.Printf("[RAG] Candidate %d: Score=%.4f [FILTERED]", i+1, sc.Similarity)
			continue
		}
		e.logger.Printf("[RAG] Candidate %d: Score=%.4f [KEEP]", i+1, sc.Similarity)
		results = append(results, chunkResult(sc.Chunk, sc.Similarity))
	}
	return results, nil
}

func (e *Engine) lexicalSearch(ctx context.Context, query string) ([]store.SearchResult, error) {
	chunks, err := e.vectors.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	results := LexicalSearch(chunks, query, e.cfg.TopK, e.cfg.MinMatchRatio)
	e.logger.Printf("[RAG] Lexical search: %d/%d chunks matched", len(results), len(chunks))
	return results, nil
}

func (e *Engine) vectorPathAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedder != nil && !e.vectorDisabled
}

func (e *Engine) disableVectorPath() {
	e.mu.Lock()
	e.vectorDisabled = true
	if e.state == StateReady {
		e.state = StateDegraded
	}
	e.mu.Unlock()
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) markReloadUsed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reloadUsed {
		return false
	}
	e.reloadUsed = true
	return true
}
