package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sales-research-be/pkg/store"
)

func TestPlanQueriesParsesModelOutput(t *testing.T) {
	provider := &fakeLLM{response: `Here are your queries:
["saas companies hiring sdrs germany", "recently funded fintech startups berlin", "saas companies hiring sdrs germany"]`}

	planner := NewPlanner(provider, discardLogger())
	queries := planner.PlanQueries(context.Background(), "find leads", "fintech", "germany", 8)

	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2 after dedupe: %v", len(queries), queries)
	}
}

func TestPlanQueriesFallsBackToTemplates(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model down")}

	planner := NewPlanner(provider, discardLogger())
	queries := planner.PlanQueries(context.Background(), "find leads", "fintech", "germany", 8)

	if len(queries) == 0 {
		t.Fatal("fallback must produce template queries")
	}
	scoped := false
	for _, q := range queries {
		if strings.Contains(q, "fintech") && strings.Contains(q, "germany") {
			scoped = true
		}
	}
	if !scoped {
		t.Errorf("queries = %v, want industry/region scoping", queries)
	}
}

func TestPlanQueriesRespectsMax(t *testing.T) {
	provider := &fakeLLM{response: `["q1","q2","q3","q4","q5","q6","q7","q8","q9","q10"]`}

	planner := NewPlanner(provider, discardLogger())
	queries := planner.PlanQueries(context.Background(), "find leads", "", "", 4)

	if len(queries) != 4 {
		t.Errorf("got %d queries, want max=4", len(queries))
	}
}

func TestTemplateQueries(t *testing.T) {
	tests := []struct {
		name     string
		taskType string
		query    string
		industry string
		region   string
		contains string
	}{
		{"company analysis uses subject", store.TaskCompanyAnalysis, "Acme Corp", "", "", "Acme Corp competitors"},
		{"icp development uses subject", store.TaskICPDevelopment, "our CRM", "", "", "our CRM ideal customer profile"},
		{"lead generation prefers scope", store.TaskLeadGeneration, "find leads", "fintech", "berlin", "fintech berlin"},
		{"unknown task echoes query", "other", "just this", "", "", "just this"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := TemplateQueries(tt.taskType, tt.query, tt.industry, tt.region)
			if len(queries) == 0 {
				t.Fatal("TemplateQueries() returned nothing")
			}
			found := false
			for _, q := range queries {
				if strings.Contains(q, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("queries = %v, want one containing %q", queries, tt.contains)
			}
		})
	}
}
