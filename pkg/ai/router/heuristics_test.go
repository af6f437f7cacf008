package router

import (
	"testing"

	"sales-research-be/pkg/store"
)

func TestHasResearchMarker(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"explicit research keyword", "Please research the fintech market in Brazil", true},
		{"competitor keyword", "Who are the competitors of Stripe?", true},
		{"lead generation phrase", "I need lead generation for SaaS companies", true},
		{"icp abbreviation", "Help me build an ICP for mid-market retailers", true},
		{"bare domain name", "Tell me about acme.io", true},
		{"domain with country suffix", "What does example.co.uk sell?", true},
		{"pricing question", "How much does the pro plan cost?", false},
		{"greeting", "Hello, how are you today?", false},
		{"decimal number is not a domain", "Revenue grew 3.5 percent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasResearchMarker(tt.query); got != tt.want {
				t.Errorf("HasResearchMarker(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestHeuristicRoute(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantRoute  string
		wantUseWeb bool
		wantUseRAG bool
	}{
		{"research marker wins", "research competitors of acme", store.RouteResearch, true, false},
		{"knowledge base marker", "what is the pricing for your product?", store.RouteKnowledgeBase, false, true},
		{"subscription marker", "can I change my subscription?", store.RouteKnowledgeBase, false, true},
		{"no marker falls to chat", "thanks, that was helpful", store.RouteGeneralChat, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := HeuristicRoute(tt.query)

			if decision.Route != tt.wantRoute {
				t.Errorf("Route = %q, want %q", decision.Route, tt.wantRoute)
			}
			if decision.UseWeb != tt.wantUseWeb {
				t.Errorf("UseWeb = %v, want %v", decision.UseWeb, tt.wantUseWeb)
			}
			if decision.UseRAG != tt.wantUseRAG {
				t.Errorf("UseRAG = %v, want %v", decision.UseRAG, tt.wantUseRAG)
			}
		})
	}
}
