package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/store"
)

// Planner synthesizes buyer-intent search queries for directed research.
// Planning is best-effort: unparsable or failed plans fall back to the
// heuristic template battery.
type Planner struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewPlanner(llmProvider llm.LLMProvider, logger *log.Logger) *Planner {
	return &Planner{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// PlanQueries asks the planning model for 6-8 search queries constrained
// to the target industry/region.
func (p *Planner) PlanQueries(ctx context.Context, query, industry, region string, max int) []string {
	if max <= 0 {
		max = 8
	}

	planned, err := p.modelPlan(ctx, query, industry, region)
	if err != nil {
		p.logger.Printf("[PLANNER] Model planning failed, using templates: %v", err)
		planned = TemplateQueries(store.TaskLeadGeneration, query, industry, region)
	}

	return dedupeQueries(planned, max)
}

func (p *Planner) modelPlan(ctx context.Context, query, industry, region string) ([]string, error) {
	var prompt strings.Builder
	prompt.WriteString("Generate 6-8 web search queries to find companies showing buyer intent.\n")
	prompt.WriteString(fmt.Sprintf("Goal: %s\n", query))
	if industry != "" {
		prompt.WriteString(fmt.Sprintf("Target industry: %s (every query must stay within it)\n", industry))
	}
	if region != "" {
		prompt.WriteString(fmt.Sprintf("Target region: %s\n", region))
	}
	prompt.WriteString("\nRespond with ONLY a JSON array of strings.")

	response, err := p.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.3))
	if err != nil {
		return nil, err
	}

	queries, err := parseQueryList(response)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("planner returned no queries")
	}
	return queries, nil
}

func parseQueryList(response string) ([]string, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var queries []string
	if err := json.Unmarshal([]byte(response[start:end+1]), &queries); err != nil {
		return nil, fmt.Errorf("unmarshal query list: %w", err)
	}

	cleaned := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q != "" {
			cleaned = append(cleaned, q)
		}
	}
	return cleaned, nil
}

// TemplateQueries is the heuristic battery used when planning fails or
// when the task needs no planning model at all.
func TemplateQueries(taskType, query, industry, region string) []string {
	subject := strings.TrimSpace(query)
	scope := strings.TrimSpace(strings.Join([]string{industry, region}, " "))

	var templates []string
	switch taskType {
	case store.TaskCompanyAnalysis:
		templates = []string{
			"%s company overview",
			"%s products and services",
			"%s competitors",
			"%s funding news",
			"%s customer reviews",
		}
	case store.TaskICPDevelopment:
		templates = []string{
			"%s ideal customer profile",
			"%s typical buyers",
			"%s target market segments",
			"%s case studies customers",
		}
	case store.TaskLeadGeneration:
		templates = []string{
			"companies hiring sales teams %s",
			"fast growing companies %s",
			"companies expanding %s",
			"recently funded startups %s",
			"%s companies looking for vendors",
		}
	default:
		return []string{subject}
	}

	arg := subject
	if taskType == store.TaskLeadGeneration && scope != "" {
		arg = scope
	}

	queries := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		queries = append(queries, strings.TrimSpace(fmt.Sprintf(tmpl, arg)))
	}
	return queries
}

func dedupeQueries(queries []string, max int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(q))
		if len(out) >= max {
			break
		}
	}
	return out
}
