package websearch

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"sales-research-be/pkg/store"
)

// Config encapsulates chain behavior
type Config struct {
	// PrimaryCooldown is how long the first provider sits out after a
	// failure. A cooldown, not a permanent disable.
	PrimaryCooldown time.Duration
	MaxQueryWords   int
}

// DefaultConfig returns default chain configuration
func DefaultConfig() Config {
	return Config{
		PrimaryCooldown: 2 * time.Minute,
		MaxQueryWords:   12,
	}
}

// Chain tries providers in order of decreasing integration cost and
// guarantees a non-empty result set: if every provider yields nothing,
// synthetic placeholders keep downstream synthesis alive.
type Chain struct {
	providers []Provider
	cfg       Config
	clock     func() time.Time
	logger    *log.Logger

	mu         sync.Mutex
	coolingOff map[string]time.Time
}

func NewChain(providers []Provider, cfg Config, logger *log.Logger) *Chain {
	return &Chain{
		providers:  providers,
		cfg:        cfg,
		clock:      time.Now,
		logger:     logger,
		coolingOff: make(map[string]time.Time),
	}
}

// WithClock substitutes the wall clock, for tests.
func (c *Chain) WithClock(clock func() time.Time) *Chain {
	c.clock = clock
	return c
}

// ProviderCount reports how many providers are configured.
func (c *Chain) ProviderCount() int {
	return len(c.providers)
}

// Search cascades through the provider chain and returns normalized,
// deduplicated results. Never returns an empty set alongside a nil error.
func (c *Chain) Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	simplified := SimplifyQuery(query, c.cfg.MaxQueryWords)
	if simplified != query {
		c.logger.Printf("[SEARCH] Query simplified: %q -> %q", query, simplified)
	}

	for i, provider := range c.providers {
		if !provider.Available() {
			continue
		}
		if c.isCoolingOff(provider.Name()) {
			c.logger.Printf("[SEARCH] Provider %s cooling off, skipping", provider.Name())
			continue
		}

		results, err := provider.Search(ctx, simplified, maxResults)
		if err != nil {
			c.logger.Printf("[SEARCH] Provider %s failed: %v", provider.Name(), err)
			if i == 0 {
				c.startCooldown(provider.Name())
			}
			continue
		}
		if len(results) == 0 {
			c.logger.Printf("[SEARCH] Provider %s returned no results", provider.Name())
			continue
		}

		c.logger.Printf("[SEARCH] Provider %s returned %d results", provider.Name(), len(results))
		return c.normalize(results, maxResults), nil
	}

	// Total miss: synthesize placeholders so downstream synthesis never
	// fails for lack of any context
	c.logger.Printf("[SEARCH] All providers exhausted, returning synthetic placeholders")
	return syntheticResults(query), nil
}

func (c *Chain) isCoolingOff(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.coolingOff[name]
	if !ok {
		return false
	}
	if c.clock().After(until) {
		delete(c.coolingOff, name)
		return false
	}
	return true
}

func (c *Chain) startCooldown(name string) {
	c.mu.Lock()
	c.coolingOff[name] = c.clock().Add(c.cfg.PrimaryCooldown)
	c.mu.Unlock()
}

// normalize assigns heuristic scores where the provider gave none,
// deduplicates by URL and caps the result count.
func (c *Chain) normalize(results []store.SearchResult, maxResults int) []store.SearchResult {
	seen := make(map[string]bool)
	out := make([]store.SearchResult, 0, len(results))

	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		if r.Snippet == "" {
			r.Snippet = snippetOf(r.Content)
		}
		if r.RelevanceScore == 0 {
			r.RelevanceScore = heuristicScore(r.Content, r.Title)
		}
		if r.RelevanceScore > 95 {
			r.RelevanceScore = 95
		}

		out = append(out, r)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// heuristicScore estimates relevance from content length and title
// quality when a provider supplies no native score. Capped at 95 so a
// heuristic never outranks a strong native score.
func heuristicScore(content, title string) float64 {
	score := 40.0

	length := float64(len(content)) / 50.0
	if length > 40 {
		length = 40
	}
	score += length

	if len(title) >= 10 && len(title) <= 80 {
		score += 15
	}

	if score > 95 {
		score = 95
	}
	return score
}

var domainPattern = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]*\.[a-z]{2,}(\.[a-z]{2,})?\b`)

// SimplifyQuery shortens long or compound queries before dispatch: the
// bare domain token (if any) plus a few topic words. Providers truncate or
// reject overlong queries.
func SimplifyQuery(query string, maxWords int) string {
	words := strings.Fields(query)
	if len(words) <= maxWords {
		return query
	}

	lower := strings.ToLower(query)
	domain := domainPattern.FindString(lower)

	var picked []string
	if domain != "" {
		picked = append(picked, domain)
	}
	for _, w := range words {
		if len(picked) >= maxWords/2 {
			break
		}
		cleaned := strings.ToLower(strings.Trim(w, ".,!?;:\"'()"))
		if cleaned == domain || len(cleaned) < 4 || isStopWord(cleaned) {
			continue
		}
		picked = append(picked, cleaned)
	}
	if len(picked) == 0 {
		return strings.Join(words[:maxWords], " ")
	}
	return strings.Join(picked, " ")
}

func isStopWord(w string) bool {
	switch w {
	case "about", "what", "which", "their", "there", "with", "from", "that", "this", "have", "please", "could", "would":
		return true
	}
	return false
}

// syntheticResults builds the clearly non-authoritative placeholder set
// derived from the query's domain token.
func syntheticResults(query string) []store.SearchResult {
	token := domainPattern.FindString(strings.ToLower(query))
	if token == "" {
		words := strings.Fields(query)
		if len(words) > 0 {
			token = words[0]
		} else {
			token = "the topic"
		}
	}

	return []store.SearchResult{
		{
			Content:        fmt.Sprintf("No live search results were available for %s. This entry is a placeholder; treat any statements about %s as unverified.", token, token),
			URL:            PlaceholderScheme + "search-degraded/1",
			Title:          fmt.Sprintf("Background: %s (unverified)", token),
			Snippet:        fmt.Sprintf("Placeholder context for %s", token),
			RelevanceScore: 20,
		},
		{
			Content:        fmt.Sprintf("General industry context may still apply to %s: consider company size, sector, typical buyer roles and publicly known competitors.", token),
			URL:            PlaceholderScheme + "search-degraded/2",
			Title:          "General research guidance (unverified)",
			Snippet:        "Generic guidance in absence of live results",
			RelevanceScore: 15,
		},
	}
}

func snippetOf(content string) string {
	if len(content) <= 160 {
		return content
	}
	return content[:160] + "..."
}
