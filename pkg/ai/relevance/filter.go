package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/store"
)

// Assessment is the filter's verdict for one query.
type Assessment struct {
	IsRelevant bool   `json:"is_relevant"`
	Confidence int    `json:"confidence"` // 0-100
	Reason     string `json:"reason"`
}

// RejectionSink receives high-confidence rejections for corpus-gap
// analysis. Implementations must not block the request path.
type RejectionSink interface {
	RecordRejection(query string, confidence int, reason string)
}

// Config encapsulates filter parameters
type Config struct {
	Timeout       time.Duration // model call deadline before failing open
	HighThreshold int           // rejections at or above this are logged
}

// DefaultConfig returns default filter configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       1200 * time.Millisecond,
		HighThreshold: 85,
	}
}

// Filter rejects queries clearly outside the business/sales domain.
// Lenient by default: on any doubt, timeout or model failure the query
// passes. Availability beats precision here.
type Filter struct {
	llmProvider llm.LLMProvider
	cfg         Config
	sink        RejectionSink
	logger      *log.Logger
}

func NewFilter(llmProvider llm.LLMProvider, cfg Config, sink RejectionSink, logger *log.Logger) *Filter {
	return &Filter{
		llmProvider: llmProvider,
		cfg:         cfg,
		sink:        sink,
		logger:      logger,
	}
}

// Follow-up phrasings that only make sense against prior context.
var followUpMarkers = []string{
	"what do you mean",
	"explain that",
	"tell me more",
	"can you clarify",
	"go on",
	"expand on that",
	"what about that",
	"and then",
}

// Filter assesses one query. recentContext is the tail of the session
// history; follow-up phrasing short-circuits to relevant when context
// exists, with no model call.
func (f *Filter) Filter(ctx context.Context, query string, recentContext []store.Message) Assessment {
	if isFollowUp(query) && len(recentContext) > 0 {
		return Assessment{
			IsRelevant: true,
			Confidence: 90,
			Reason:     "Follow-up on existing conversation",
		}
	}

	assessment, err := f.modelCheck(ctx, query)
	if err != nil {
		// Fail open: treat as relevant with low confidence
		f.logger.Printf("[RELEVANCE] Model check failed, failing open: %v", err)
		return Assessment{
			IsRelevant: true,
			Confidence: 30,
			Reason:     "Relevance check unavailable, assuming relevant",
		}
	}

	if !assessment.IsRelevant && assessment.Confidence >= f.cfg.HighThreshold && f.sink != nil {
		f.sink.RecordRejection(query, assessment.Confidence, assessment.Reason)
	}

	return assessment
}

func (f *Filter) modelCheck(parent context.Context, query string) (Assessment, error) {
	ctx, cancel := context.WithTimeout(parent, f.cfg.Timeout)
	defer cancel()

	response, err := f.llmProvider.Generate(ctx, buildPrompt(query), llm.WithTemperature(0.0))
	if err != nil {
		return Assessment{}, err
	}

	assessment, err := parseAssessment(response)
	if err != nil {
		return Assessment{}, fmt.Errorf("parse assessment: %w", err)
	}
	return assessment, nil
}

func buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a relevance gate for a business and sales research assistant.\n")
	prompt.WriteString("Default to RELEVANT. Only reject content clearly outside business, sales, ")
	prompt.WriteString("marketing, prospecting or company research: personal matters, medical advice, ")
	prompt.WriteString("entertainment, unrelated academic or programming help.\n\n")
	prompt.WriteString("Query:\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\nRespond with ONLY valid JSON:\n")
	prompt.WriteString(`{"is_relevant": true, "confidence": 80, "reason": "short explanation"}`)

	return prompt.String()
}

func parseAssessment(response string) (Assessment, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return Assessment{}, fmt.Errorf("no JSON found in response")
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(jsonContent), &assessment); err != nil {
		return Assessment{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	if assessment.Confidence < 0 {
		assessment.Confidence = 0
	}
	if assessment.Confidence > 100 {
		assessment.Confidence = 100
	}
	return assessment, nil
}

func isFollowUp(query string) bool {
	lower := strings.ToLower(strings.TrimSpace(query))
	for _, marker := range followUpMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
