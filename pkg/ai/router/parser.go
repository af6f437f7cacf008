package router

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sales-research-be/pkg/store"
)

// rawDecision mirrors the JSON shape the classifier model is asked for.
type rawDecision struct {
	Route      string `json:"route"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
	UseWeb     bool   `json:"use_web"`
	UseRAG     bool   `json:"use_rag"`
}

var (
	routePattern      = regexp.MustCompile(`(?i)route["':\s]+(knowledge-base|research|general-chat|reject)`)
	confidencePattern = regexp.MustCompile(`(?i)confidence["':\s]+(\d{1,3})`)
	useWebPattern     = regexp.MustCompile(`(?i)use_?web["':\s]+(true|false)`)
	useRAGPattern     = regexp.MustCompile(`(?i)use_?rag["':\s]+(true|false)`)
)

// ParseDecision extracts a route decision from model output. Strict JSON
// first; when that fails, regex extraction tolerant of surrounding prose;
// when even that fails, an explicit documented default.
func ParseDecision(response string) (*store.RouteDecision, error) {
	if decision, err := parseStrict(response); err == nil {
		return decision, nil
	}

	if decision, ok := parseTolerant(response); ok {
		return decision, nil
	}

	return nil, fmt.Errorf("no route decision found in response")
}

// DefaultDecision is the hardcoded fallback when parsing fails entirely:
// general chat, low confidence, no external calls.
func DefaultDecision(reason string) *store.RouteDecision {
	return &store.RouteDecision{
		Route:      store.RouteGeneralChat,
		Confidence: 40,
		Reasoning:  reason,
		UseWeb:     false,
		UseRAG:     false,
	}
}

func parseStrict(response string) (*store.RouteDecision, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, err
	}

	route := normalizeRoute(raw.Route)
	if route == "" {
		return nil, fmt.Errorf("invalid route %q", raw.Route)
	}

	return &store.RouteDecision{
		Route:      route,
		Confidence: clampConfidence(raw.Confidence),
		Reasoning:  raw.Reasoning,
		UseWeb:     raw.UseWeb,
		UseRAG:     raw.UseRAG,
	}, nil
}

func parseTolerant(response string) (*store.RouteDecision, bool) {
	routeMatch := routePattern.FindStringSubmatch(response)
	if routeMatch == nil {
		return nil, false
	}
	route := normalizeRoute(routeMatch[1])
	if route == "" {
		return nil, false
	}

	confidence := 60
	if m := confidencePattern.FindStringSubmatch(response); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			confidence = clampConfidence(v)
		}
	}

	decision := &store.RouteDecision{
		Route:      route,
		Confidence: confidence,
		Reasoning:  "Extracted from unstructured classifier output",
		UseWeb:     route == store.RouteResearch,
		UseRAG:     route == store.RouteKnowledgeBase,
	}

	if m := useWebPattern.FindStringSubmatch(response); m != nil {
		decision.UseWeb = strings.EqualFold(m[1], "true")
	}
	if m := useRAGPattern.FindStringSubmatch(response); m != nil {
		decision.UseRAG = strings.EqualFold(m[1], "true")
	}

	return decision, true
}

func normalizeRoute(route string) string {
	switch strings.ToLower(strings.TrimSpace(route)) {
	case store.RouteKnowledgeBase, "kb", "knowledge_base":
		return store.RouteKnowledgeBase
	case store.RouteResearch:
		return store.RouteResearch
	case store.RouteGeneralChat, "chat", "general_chat":
		return store.RouteGeneralChat
	case store.RouteReject:
		return store.RouteReject
	default:
		return ""
	}
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
