package router

import (
	"testing"

	"sales-research-be/pkg/store"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantErr        bool
		wantRoute      string
		wantConfidence int
		wantUseWeb     bool
		wantUseRAG     bool
	}{
		{
			name:           "clean JSON",
			response:       `{"route": "knowledge-base", "confidence": 85, "reasoning": "pricing question", "use_web": false, "use_rag": true}`,
			wantRoute:      store.RouteKnowledgeBase,
			wantConfidence: 85,
			wantUseWeb:     false,
			wantUseRAG:     true,
		},
		{
			name:           "JSON wrapped in markdown fences",
			response:       "```json\n{\"route\": \"research\", \"confidence\": 90, \"use_web\": true, \"use_rag\": false}\n```",
			wantRoute:      store.RouteResearch,
			wantConfidence: 90,
			wantUseWeb:     true,
			wantUseRAG:     false,
		},
		{
			name:           "JSON with surrounding prose",
			response:       `Sure! Here is the classification: {"route": "general-chat", "confidence": 70, "reasoning": "greeting"}`,
			wantRoute:      store.RouteGeneralChat,
			wantConfidence: 70,
		},
		{
			name:           "prose only, tolerant extraction",
			response:       `I think the route: research with confidence: 80 because it mentions competitors`,
			wantRoute:      store.RouteResearch,
			wantConfidence: 80,
			wantUseWeb:     true,
			wantUseRAG:     false,
		},
		{
			name:           "tolerant extraction without confidence",
			response:       `route: knowledge-base seems right here`,
			wantRoute:      store.RouteKnowledgeBase,
			wantConfidence: 60,
			wantUseRAG:     true,
		},
		{
			name:           "alias route name",
			response:       `{"route": "knowledge_base", "confidence": 75}`,
			wantRoute:      store.RouteKnowledgeBase,
			wantConfidence: 75,
		},
		{
			name:           "confidence clamped to 100",
			response:       `{"route": "reject", "confidence": 250}`,
			wantRoute:      store.RouteReject,
			wantConfidence: 100,
		},
		{
			name:     "no decision at all",
			response: `I am not sure what you mean.`,
			wantErr:  true,
		},
		{
			name:     "invalid route name",
			response: `{"route": "banana", "confidence": 90}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := ParseDecision(tt.response)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecision() = %+v, want error", decision)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision() error = %v", err)
			}

			if decision.Route != tt.wantRoute {
				t.Errorf("Route = %q, want %q", decision.Route, tt.wantRoute)
			}
			if decision.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %d, want %d", decision.Confidence, tt.wantConfidence)
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

func TestDefaultDecision(t *testing.T) {
	decision := DefaultDecision("testing fallback")

	if decision.Route != store.RouteGeneralChat {
		t.Errorf("Route = %q, want %q", decision.Route, store.RouteGeneralChat)
	}
	if decision.UseWeb || decision.UseRAG {
		t.Errorf("default decision must not trigger external calls: web=%v rag=%v", decision.UseWeb, decision.UseRAG)
	}
}
