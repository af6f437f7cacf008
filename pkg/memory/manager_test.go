package memory

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/store"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func newTestManager(provider llm.LLMProvider, budget int) *Manager {
	cfg := DefaultConfig()
	cfg.TokenBudget = budget
	models := modelrouter.NewRouter(modelrouter.Config{FastModel: "fast-1"})
	return NewManager(provider, models, cfg, log.New(io.Discard, "", 0))
}

func msg(role, content string) store.Message {
	return store.Message{Role: role, Content: content}
}

func TestTrimKeepsSuffixWithinBudget(t *testing.T) {
	// 100 chars each, 25 estimated tokens per message
	content := strings.Repeat("x", 100)
	messages := []store.Message{
		msg(store.RoleUser, content),
		msg(store.RoleAssistant, content),
		msg(store.RoleUser, content),
		msg(store.RoleAssistant, content),
	}

	m := newTestManager(&fakeLLM{}, 60) // fits two messages (50), not three (75)
	trimmed := m.Trim(messages)

	if len(trimmed) != 2 {
		t.Fatalf("got %d messages, want 2", len(trimmed))
	}
	if trimmed[0].Role != store.RoleUser || trimmed[1].Role != store.RoleAssistant {
		t.Error("trim must keep the newest suffix in order")
	}
}

func TestTrimKeepsOversizedNewestMessage(t *testing.T) {
	messages := []store.Message{
		msg(store.RoleUser, "short"),
		msg(store.RoleAssistant, strings.Repeat("y", 4000)), // 1000 tokens
	}

	m := newTestManager(&fakeLLM{}, 100)
	trimmed := m.Trim(messages)

	if len(trimmed) != 1 {
		t.Fatalf("got %d messages, want 1", len(trimmed))
	}
	if trimmed[0].Role != store.RoleAssistant {
		t.Error("the oversized newest message must survive alone")
	}
}

func TestTrimEmptyHistory(t *testing.T) {
	m := newTestManager(&fakeLLM{}, 100)
	if got := m.Trim(nil); len(got) != 0 {
		t.Errorf("Trim(nil) = %v, want empty", got)
	}
}

func TestShouldSummarize(t *testing.T) {
	m := newTestManager(&fakeLLM{}, 2000)

	session := &store.Session{}
	if m.ShouldSummarize(session) {
		t.Error("empty session must not summarize")
	}

	for i := 0; i < 5; i++ {
		session.Append(store.RoleUser, "q")
	}
	if m.ShouldSummarize(session) {
		t.Error("5 messages with SummarizeEvery=6 must not summarize")
	}

	session.Append(store.RoleAssistant, "a")
	if !m.ShouldSummarize(session) {
		t.Error("6 messages with SummarizeEvery=6 must summarize")
	}
}

func TestSummarizeParsesModelJSON(t *testing.T) {
	provider := &fakeLLM{response: "Here you go:\n" +
		`{"summary": "User compared CRM plans.", "key_topics": ["pricing", "plans"], "user_intent": "evaluate purchase"}`}

	m := newTestManager(provider, 2000)
	session := &store.Session{Messages: []store.Message{msg(store.RoleUser, "compare your plans")}}

	summary := m.Summarize(context.Background(), session)

	if summary.Summary != "User compared CRM plans." {
		t.Errorf("Summary = %q", summary.Summary)
	}
	if len(summary.KeyTopics) != 2 {
		t.Errorf("KeyTopics = %v, want 2 entries", summary.KeyTopics)
	}
	if summary.UpdatedAt.IsZero() {
		t.Error("UpdatedAt must be set")
	}
}

func TestSummarizeFallsBackOnModelFailure(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model down")}

	m := newTestManager(provider, 2000)
	session := &store.Session{
		LastQuery: "pricing for teams",
		Messages: []store.Message{
			msg(store.RoleUser, "hi"),
			msg(store.RoleAssistant, "hello"),
			msg(store.RoleUser, "pricing for teams"),
		},
	}

	summary := m.Summarize(context.Background(), session)

	if !strings.Contains(summary.Summary, "2 user messages") {
		t.Errorf("fallback summary = %q, want user-turn count", summary.Summary)
	}
	if !strings.Contains(summary.Summary, "pricing for teams") {
		t.Errorf("fallback summary = %q, want last query", summary.Summary)
	}
}

func TestSummarizeFallsBackOnGarbageOutput(t *testing.T) {
	provider := &fakeLLM{response: "I cannot produce JSON right now, sorry."}

	m := newTestManager(provider, 2000)
	session := &store.Session{Messages: []store.Message{msg(store.RoleUser, "hello")}}

	summary := m.Summarize(context.Background(), session)

	if summary.Summary == "" {
		t.Error("fallback must still produce a non-empty summary")
	}
	if summary.UserIntent != "unknown" {
		t.Errorf("UserIntent = %q, want unknown fallback", summary.UserIntent)
	}
}
