package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sales-research-be/internal/dto"
	sessionmem "sales-research-be/internal/repository/memory"
	"sales-research-be/pkg/ai/router"
	"sales-research-be/pkg/rag/retriever"
	"sales-research-be/pkg/websearch"
)

type IDiagnosticsService interface {
	Health(ctx context.Context) *dto.HealthResponse
	RecentRejections(limit int) ([]dto.RejectionRecord, error)
	RecordRejection(query string, confidence int, reason string)
}

// diagnosticsService surfaces operational state and keeps an append-only
// JSONL trail of rejected queries for prompt tuning.
type diagnosticsService struct {
	engine      *retriever.Engine
	breaker     *router.CircuitBreaker
	chain       *websearch.Chain
	sessionRepo *sessionmem.SessionRepository

	mu      sync.Mutex
	logPath string
}

func NewDiagnosticsService(
	engine *retriever.Engine,
	breaker *router.CircuitBreaker,
	chain *websearch.Chain,
	sessionRepo *sessionmem.SessionRepository,
	logPath string,
) IDiagnosticsService {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create diagnostics directory: %v", err)
	}
	return &diagnosticsService{
		engine:      engine,
		breaker:     breaker,
		chain:       chain,
		sessionRepo: sessionRepo,
		logPath:     logPath,
	}
}

func (ds *diagnosticsService) Health(ctx context.Context) *dto.HealthResponse {
	status := "ok"
	if ds.engine.State() == retriever.StateDegraded {
		status = "degraded"
	}

	return &dto.HealthResponse{
		Status:          status,
		RetrievalState:  ds.engine.State().String(),
		ClassifierOpen:  ds.breaker.IsOpen(),
		ActiveSessions:  len(ds.sessionRepo.All()),
		IndexedChunks:   ds.engine.ChunkCount(),
		SearchProviders: ds.chain.ProviderCount(),
	}
}

// RecordRejection appends one rejected query to the JSONL trail. Failures
// are logged and swallowed; diagnostics never break a request.
func (ds *diagnosticsService) RecordRejection(query string, confidence int, reason string) {
	record := dto.RejectionRecord{
		Query:      query,
		Reason:     reason,
		Confidence: confidence,
		Timestamp:  time.Now(),
	}

	line, err := json.Marshal(record)
	if err != nil {
		log.Printf("[DIAG] Failed to marshal rejection record: %v", err)
		return
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	file, err := os.OpenFile(ds.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[DIAG] Failed to open rejection log: %v", err)
		return
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		log.Printf("[DIAG] Failed to write rejection record: %v", err)
	}
}

func (ds *diagnosticsService) RecentRejections(limit int) ([]dto.RejectionRecord, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := os.ReadFile(ds.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []dto.RejectionRecord{}, nil
		}
		return nil, err
	}

	var records []dto.RejectionRecord
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var record dto.RejectionRecord
		if err := json.Unmarshal(line, &record); err == nil {
			records = append(records, record)
		}
	}

	// Newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
