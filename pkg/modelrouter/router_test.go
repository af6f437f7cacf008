package modelrouter

import "testing"

func testConfig() Config {
	return Config{
		FastModel:         "fast-1",
		StandardModel:     "standard-1",
		HighModel:         "high-1",
		DeepResearchModel: "deep-1",
	}
}

func TestRoute(t *testing.T) {
	router := NewRouter(testConfig())

	tests := []struct {
		name       string
		taskType   string
		complexity string
		policy     Policy
		wantFamily string
		wantModel  string
	}{
		{"force high wins over everything", TaskSummarization, ComplexityLow, Policy{ForceHighCapability: true, RequiresWebGrounding: true}, FamilyHigh, "high-1"},
		{"private data routes high", TaskChat, ComplexityLow, Policy{PrivateData: true}, FamilyHigh, "high-1"},
		{"web grounding routes deep research", TaskSynthesis, ComplexityMedium, Policy{RequiresWebGrounding: true}, FamilyDeepResearch, "deep-1"},
		{"summarization routes fast", TaskSummarization, ComplexityHigh, Policy{}, FamilyFast, "fast-1"},
		{"classification routes fast", TaskClassification, ComplexityLow, Policy{}, FamilyFast, "fast-1"},
		{"planning routes standard", TaskPlanning, ComplexityLow, Policy{}, FamilyStandard, "standard-1"},
		{"high complexity synthesis routes high", TaskSynthesis, ComplexityHigh, Policy{}, FamilyHigh, "high-1"},
		{"medium synthesis routes standard", TaskSynthesis, ComplexityMedium, Policy{}, FamilyStandard, "standard-1"},
		{"simple chat routes fast", TaskChat, ComplexityLow, Policy{}, FamilyFast, "fast-1"},
		{"complex chat routes standard", TaskChat, ComplexityHigh, Policy{}, FamilyStandard, "standard-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle := router.Route(tt.taskType, tt.complexity, tt.policy)

			if handle.Family != tt.wantFamily {
				t.Errorf("Family = %q, want %q", handle.Family, tt.wantFamily)
			}
			if handle.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", handle.Model, tt.wantModel)
			}
			if handle.Profile.TaskAffinity != tt.taskType {
				t.Errorf("TaskAffinity = %q, want %q", handle.Profile.TaskAffinity, tt.taskType)
			}
		})
	}
}

func TestRouteClassificationIsDeterministic(t *testing.T) {
	router := NewRouter(testConfig())
	handle := router.Route(TaskClassification, ComplexityLow, Policy{})

	if handle.Profile.Temperature != 0.0 {
		t.Errorf("classification temperature = %f, want 0", handle.Profile.Temperature)
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"short simple query", "hello there", ComplexityLow},
		{"medium length", "can you tell me which CRM plans include more than one thousand contacts", ComplexityMedium},
		{"complexity term", "analyze the pricing structure", ComplexityMedium},
		{
			"long multi-question analytical query",
			"Please give me a comprehensive breakdown of the European mid-market CRM landscape. Who are the top vendors? How do their pricing models differ? Which ones target the same ideal customer profile that we do, and where do they win deals against us most often?",
			ComplexityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeComplexity(tt.query); got != tt.want {
				t.Errorf("AnalyzeComplexity(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
