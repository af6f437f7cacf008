package retriever

import (
	"strings"
	"testing"

	"sales-research-be/pkg/store"
)

func TestExtractDirectAnswer(t *testing.T) {
	results := []store.SearchResult{
		{Content: "The starter plan costs 29 dollars monthly. It includes basic reporting. Billing happens on the first of each month."},
		{Content: "Support is available via email only on the starter plan."},
	}

	answer, confidence := ExtractDirectAnswer(results, "how much does the starter plan cost", 2)

	if answer == "" {
		t.Fatal("ExtractDirectAnswer() returned empty answer")
	}
	if confidence <= 0 {
		t.Errorf("confidence = %f, want > 0", confidence)
	}
	if !strings.Contains(answer, "29 dollars") {
		t.Errorf("answer = %q, want it to carry the pricing sentence", answer)
	}
}

func TestExtractDirectAnswerNoResults(t *testing.T) {
	answer, confidence := ExtractDirectAnswer(nil, "anything", 3)
	if answer != "" || confidence != 0 {
		t.Errorf("got (%q, %f), want empty answer and zero confidence", answer, confidence)
	}
}

func TestExtractDirectAnswerNoOverlap(t *testing.T) {
	results := []store.SearchResult{
		{Content: "Completely unrelated text about gardening tools."},
	}
	answer, confidence := ExtractDirectAnswer(results, "quarterly revenue forecast", 3)
	if answer != "" {
		t.Errorf("answer = %q, want empty when nothing matches", answer)
	}
	if confidence != 0 {
		t.Errorf("confidence = %f, want 0", confidence)
	}
}

func TestExtractDirectAnswerCapsSentences(t *testing.T) {
	results := []store.SearchResult{
		{Content: "The plan costs money. The plan includes features. The plan renews yearly. The plan supports teams. The plan has limits."},
	}

	answer, _ := ExtractDirectAnswer(results, "plan details", 2)

	if got := strings.Count(answer, "."); got > 2 {
		t.Errorf("answer carries %d sentences, want at most 2: %q", got, answer)
	}
}
