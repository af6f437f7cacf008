package router

import (
	"regexp"
	"strings"

	"sales-research-be/pkg/store"
)

var domainNamePattern = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]*\.[a-z]{2,}(\.[a-z]{2,})?\b`)

// Explicit markers that must always route to research. A research task
// silently misrouted to chat is the worst failure mode this router has.
var researchMarkers = []string{
	"research",
	"competitor",
	"competitors",
	"lead generation",
	"find leads",
	"prospect",
	"prospects",
	"market analysis",
	"icp",
	"ideal customer profile",
}

var knowledgeBaseMarkers = []string{
	"pricing",
	"price",
	"faq",
	"how much",
	"your product",
	"our product",
	"feature",
	"plan",
	"subscription",
}

// HasResearchMarker reports whether the query carries an explicit
// research/lead-generation signal.
func HasResearchMarker(query string) bool {
	lower := strings.ToLower(query)
	if domainNamePattern.MatchString(lower) {
		return true
	}
	for _, marker := range researchMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HeuristicRoute is the keyword routing used when the classifier model is
// unavailable (kill-switch, open breaker, timeout).
func HeuristicRoute(query string) *store.RouteDecision {
	lower := strings.ToLower(query)

	if HasResearchMarker(query) {
		return &store.RouteDecision{
			Route:      store.RouteResearch,
			Confidence: 75,
			Reasoning:  "Heuristic: research/lead-generation markers present",
			UseWeb:     true,
			UseRAG:     false,
		}
	}

	for _, marker := range knowledgeBaseMarkers {
		if strings.Contains(lower, marker) {
			return &store.RouteDecision{
				Route:      store.RouteKnowledgeBase,
				Confidence: 70,
				Reasoning:  "Heuristic: product/pricing markers present",
				UseWeb:     false,
				UseRAG:     true,
			}
		}
	}

	return &store.RouteDecision{
		Route:      store.RouteGeneralChat,
		Confidence: 50,
		Reasoning:  "Heuristic: no routing markers matched",
		UseWeb:     false,
		UseRAG:     false,
	}
}
