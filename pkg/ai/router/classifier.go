package router

import (
	"context"
	"log"
	"strings"
	"time"

	"sales-research-be/pkg/ai/relevance"
	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/store"
)

// Config encapsulates classifier parameters
type Config struct {
	Disabled        bool          // global kill-switch: heuristic routing only
	Timeout         time.Duration // classifier model deadline
	BreakerCooldown time.Duration
	RejectThreshold int // relevance rejections above this become route=reject
}

// DefaultConfig returns default classifier configuration
func DefaultConfig() Config {
	return Config{
		Disabled:        false,
		Timeout:         1200 * time.Millisecond,
		BreakerCooldown: 5 * time.Minute,
		RejectThreshold: 85,
	}
}

// Classifier decides one of {knowledge-base, research, general-chat,
// reject} per turn. A circuit breaker around the model call keeps routing
// cheap while the model is misbehaving.
type Classifier struct {
	llmProvider llm.LLMProvider
	filter      *relevance.Filter
	breaker     *CircuitBreaker
	cfg         Config
	logger      *log.Logger
}

func NewClassifier(
	llmProvider llm.LLMProvider,
	filter *relevance.Filter,
	cfg Config,
	clock func() time.Time,
	logger *log.Logger,
) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		filter:      filter,
		breaker:     NewCircuitBreaker(cfg.BreakerCooldown, clock),
		cfg:         cfg,
		logger:      logger,
	}
}

// Breaker exposes the circuit breaker for inspection.
func (c *Classifier) Breaker() *CircuitBreaker {
	return c.breaker
}

// Route produces the turn's routing decision.
func (c *Classifier) Route(ctx context.Context, query string, recentContext []store.Message) *store.RouteDecision {
	// 1. Kill-switch or open breaker: skip the model entirely
	if c.cfg.Disabled || c.breaker.IsOpen() {
		decision := HeuristicRoute(query)
		c.logger.Printf("[ROUTER] Heuristic-only mode (disabled=%v, breakerOpen=%v): %s",
			c.cfg.Disabled, c.breaker.IsOpen(), decision.Route)
		return decision
	}

	// 2. Forced route: explicit research markers never go through the
	// model, regardless of relevance confidence
	if HasResearchMarker(query) {
		c.logger.Printf("[ROUTER] Research marker detected, forcing research route")
		return &store.RouteDecision{
			Route:      store.RouteResearch,
			Confidence: 95,
			Reasoning:  "Explicit research/lead-generation marker",
			UseWeb:     true,
			UseRAG:     false,
		}
	}

	// 3. Relevance gate
	assessment := c.filter.Filter(ctx, query, recentContext)
	if !assessment.IsRelevant && assessment.Confidence >= c.cfg.RejectThreshold {
		c.logger.Printf("[ROUTER] Rejected (confidence %d): %s", assessment.Confidence, assessment.Reason)
		return &store.RouteDecision{
			Route:      store.RouteReject,
			Confidence: assessment.Confidence,
			Reasoning:  assessment.Reason,
			UseWeb:     false,
			UseRAG:     false,
		}
	}

	// 4. Classifier model
	decision, err := c.modelRoute(ctx, query, recentContext)
	if err != nil {
		// 5. Timeout/exception: heuristic route + open breaker so the
		// next few minutes don't keep paying the timeout cost
		c.logger.Printf("[ROUTER] Classifier model failed, tripping breaker: %v", err)
		c.breaker.Trip()
		return HeuristicRoute(query)
	}

	c.logger.Printf("[ROUTER] Routed: %s (confidence %d, web=%v, rag=%v)",
		decision.Route, decision.Confidence, decision.UseWeb, decision.UseRAG)
	return decision
}

func (c *Classifier) modelRoute(parent context.Context, query string, recentContext []store.Message) (*store.RouteDecision, error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	response, err := c.llmProvider.Generate(ctx, buildRoutingPrompt(query, recentContext), llm.WithTemperature(0.0))
	if err != nil {
		return nil, err
	}

	decision, err := ParseDecision(response)
	if err != nil {
		// Unparsable output is not worth a breaker trip; fall back to
		// the documented default decision
		c.logger.Printf("[ROUTER] Unparsable classifier output, using default: %v", err)
		return DefaultDecision("Classifier output unparsable"), nil
	}
	return decision, nil
}

func buildRoutingPrompt(query string, recentContext []store.Message) string {
	var prompt strings.Builder

	prompt.WriteString("You are a query router for a business/sales research assistant.\n")
	prompt.WriteString("Classify the query into exactly one route:\n\n")
	prompt.WriteString("knowledge-base: questions answerable from the company's own knowledge base (product, pricing, FAQ)\n")
	prompt.WriteString("research: requires live web research (companies, competitors, markets, leads)\n")
	prompt.WriteString("general-chat: conversational, no retrieval needed\n\n")

	if len(recentContext) > 0 {
		prompt.WriteString("Recent conversation:\n")
		for _, msg := range recentContext {
			prompt.WriteString(msg.Role)
			prompt.WriteString(": ")
			prompt.WriteString(truncate(msg.Content, 200))
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("Query:\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\nRespond with ONLY valid JSON:\n")
	prompt.WriteString(`{"route": "knowledge-base|research|general-chat", "confidence": 85, "reasoning": "short explanation", "use_web": false, "use_rag": true}`)

	return prompt.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
