package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/store"
)

// Config encapsulates conversational-memory parameters
type Config struct {
	// TokenBudget bounds the history kept verbatim in a session.
	TokenBudget int
	// SummarizeEvery triggers a summary refresh after this many messages.
	SummarizeEvery int
	Timeout        time.Duration
}

// DefaultConfig returns default memory configuration
func DefaultConfig() Config {
	return Config{
		TokenBudget:    2000,
		SummarizeEvery: 6,
		Timeout:        4 * time.Second,
	}
}

// Manager keeps session history inside the token budget and maintains a
// rolling summary of what fell off the window.
type Manager struct {
	llmProvider llm.LLMProvider
	models      *modelrouter.Router
	cfg         Config
	logger      *log.Logger
}

func NewManager(llmProvider llm.LLMProvider, models *modelrouter.Router, cfg Config, logger *log.Logger) *Manager {
	return &Manager{
		llmProvider: llmProvider,
		models:      models,
		cfg:         cfg,
		logger:      logger,
	}
}

// EstimateTokens approximates tokens as chars/4. Close enough for
// budgeting, and it never calls a tokenizer.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Trim returns the longest suffix of messages that fits the token budget.
// Oldest messages drop first. A single oversized message is kept alone so
// the window never goes empty while history exists.
func (m *Manager) Trim(messages []store.Message) []store.Message {
	if len(messages) == 0 {
		return messages
	}

	total := 0
	cut := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		total += EstimateTokens(messages[i].Content)
		if total > m.cfg.TokenBudget {
			break
		}
		cut = i
	}
	if cut == len(messages) {
		// Newest message alone busts the budget, keep it anyway
		cut = len(messages) - 1
	}
	return messages[cut:]
}

// ShouldSummarize reports whether the session is due a summary refresh.
func (m *Manager) ShouldSummarize(session *store.Session) bool {
	if m.cfg.SummarizeEvery <= 0 {
		return false
	}
	return len(session.Messages) > 0 && len(session.Messages)%m.cfg.SummarizeEvery == 0
}

type rawSummary struct {
	Summary    string   `json:"summary"`
	KeyTopics  []string `json:"key_topics"`
	UserIntent string   `json:"user_intent"`
}

// Summarize builds a fresh rolling summary from the session history. Model
// failures fall back to a counting summary so the session always carries
// something usable.
func (m *Manager) Summarize(ctx context.Context, session *store.Session) store.Summary {
	summary, err := m.modelSummary(ctx, session)
	if err != nil {
		m.logger.Printf("[MEMORY] Model summary failed, using fallback: %v", err)
		return fallbackSummary(session)
	}
	return summary
}

func (m *Manager) modelSummary(ctx context.Context, session *store.Session) (store.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	handle := m.models.Route(modelrouter.TaskSummarization, modelrouter.ComplexityLow, modelrouter.Policy{})

	var sb strings.Builder
	sb.WriteString("Summarize this sales-assistant conversation. Respond with JSON only:\n")
	sb.WriteString(`{"summary": "...", "key_topics": ["..."], "user_intent": "..."}`)
	sb.WriteString("\n\nConversation:\n")
	for _, msg := range session.Messages {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	response, err := m.llmProvider.Generate(ctx, sb.String(),
		llm.WithModel(handle.Model),
		llm.WithTemperature(handle.Profile.Temperature),
		llm.WithMaxTokens(handle.Profile.MaxTokens),
	)
	if err != nil {
		return store.Summary{}, err
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(extractJSON(response)), &raw); err != nil {
		return store.Summary{}, fmt.Errorf("unparsable summary response: %w", err)
	}
	if raw.Summary == "" {
		return store.Summary{}, fmt.Errorf("empty summary in response")
	}

	return store.Summary{
		Summary:    raw.Summary,
		KeyTopics:  raw.KeyTopics,
		UserIntent: raw.UserIntent,
		UpdatedAt:  time.Now(),
	}, nil
}

// fallbackSummary counts instead of understands. It keeps the shape of a
// real summary so downstream prompts stay uniform.
func fallbackSummary(session *store.Session) store.Summary {
	userTurns := 0
	for _, msg := range session.Messages {
		if msg.Role == store.RoleUser {
			userTurns++
		}
	}
	return store.Summary{
		Summary:    fmt.Sprintf("Conversation with %d user messages. Last query: %s", userTurns, session.LastQuery),
		KeyTopics:  []string{},
		UserIntent: "unknown",
		UpdatedAt:  time.Now(),
	}
}

// extractJSON pulls the first JSON object out of a model response that may
// wrap it in prose or code fences.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return response
	}
	return response[start : end+1]
}
