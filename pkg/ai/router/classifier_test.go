package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"sales-research-be/pkg/ai/relevance"
	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/store"
)

// fakeLLM returns canned responses and counts calls.
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

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestClassifier(provider llm.LLMProvider, cfg Config, clock func() time.Time) *Classifier {
	filter := relevance.NewFilter(provider, relevance.DefaultConfig(), nil, discardLogger())
	return NewClassifier(provider, filter, cfg, clock, discardLogger())
}

func TestRouteDisabledUsesHeuristics(t *testing.T) {
	provider := &fakeLLM{response: `{"route": "general-chat", "confidence": 90}`}
	cfg := DefaultConfig()
	cfg.Disabled = true

	c := newTestClassifier(provider, cfg, nil)
	decision := c.Route(context.Background(), "what is your pricing?", nil)

	if decision.Route != store.RouteKnowledgeBase {
		t.Errorf("Route = %q, want %q", decision.Route, store.RouteKnowledgeBase)
	}
	if provider.calls != 0 {
		t.Errorf("model calls = %d, want 0 when disabled", provider.calls)
	}
}

func TestRouteResearchMarkerSkipsModel(t *testing.T) {
	provider := &fakeLLM{response: `{"route": "general-chat", "confidence": 90}`}

	c := newTestClassifier(provider, DefaultConfig(), nil)
	decision := c.Route(context.Background(), "find competitors of acme.com", nil)

	if decision.Route != store.RouteResearch {
		t.Errorf("Route = %q, want %q", decision.Route, store.RouteResearch)
	}
	if !decision.UseWeb {
		t.Error("research route must set UseWeb")
	}
	if provider.calls != 0 {
		t.Errorf("model calls = %d, want 0 for forced research route", provider.calls)
	}
}

func TestRouteRejectAboveThreshold(t *testing.T) {
	// Same provider serves both relevance filter and classifier; the
	// relevance verdict below must short-circuit before the classifier.
	provider := &fakeLLM{response: `{"is_relevant": false, "confidence": 95, "reason": "cooking recipe"}`}

	c := newTestClassifier(provider, DefaultConfig(), nil)
	decision := c.Route(context.Background(), "how do I bake sourdough bread", nil)

	if decision.Route != store.RouteReject {
		t.Fatalf("Route = %q, want %q", decision.Route, store.RouteReject)
	}
	if decision.UseWeb || decision.UseRAG {
		t.Error("reject decision must not trigger external calls")
	}
	if provider.calls != 1 {
		t.Errorf("model calls = %d, want 1 (relevance only)", provider.calls)
	}
}

func TestRouteLowConfidenceRejectionPasses(t *testing.T) {
	provider := &fakeLLM{response: `{"is_relevant": false, "confidence": 50, "reason": "unsure"}` +
		"\n" + `{"route": "general-chat", "confidence": 70, "reasoning": "smalltalk"}`}

	c := newTestClassifier(provider, DefaultConfig(), nil)
	decision := c.Route(context.Background(), "hmm, not sure what to ask", nil)

	if decision.Route == store.RouteReject {
		t.Error("low-confidence rejection must not become route=reject")
	}
}

func TestRouteModelFailureTripsBreaker(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model unavailable")}
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := newTestClassifier(provider, DefaultConfig(), clock)
	decision := c.Route(context.Background(), "what is the pricing plan?", nil)

	// Heuristic fallback still routes the turn
	if decision.Route != store.RouteKnowledgeBase {
		t.Errorf("Route = %q, want heuristic %q", decision.Route, store.RouteKnowledgeBase)
	}
	if !c.Breaker().IsOpen() {
		t.Fatal("breaker must open after a model failure")
	}

	// Subsequent turns skip the model entirely while the breaker is open
	callsBefore := provider.calls
	c.Route(context.Background(), "and the enterprise plan?", nil)
	if provider.calls != callsBefore {
		t.Errorf("model calls = %d, want %d while breaker open", provider.calls, callsBefore)
	}
}

func TestRouteUnparsableOutputFallsBackWithoutTrip(t *testing.T) {
	provider := &fakeLLM{response: `{"is_relevant": true, "confidence": 90, "reason": "ok"} and then gibberish with no decision`}

	c := newTestClassifier(provider, DefaultConfig(), nil)
	decision := c.Route(context.Background(), "tell me something interesting about B2B sales", nil)

	if decision.Route != store.RouteGeneralChat {
		t.Errorf("Route = %q, want default %q", decision.Route, store.RouteGeneralChat)
	}
	if c.Breaker().IsOpen() {
		t.Error("unparsable output must not trip the breaker")
	}
}
