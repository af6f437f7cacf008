package modelrouter

import "strings"

var complexityTerms = []string{
	"comprehensive", "in-depth", "detailed", "thorough",
	"compare and contrast", "step by step", "analyze",
}

// AnalyzeComplexity buckets a query into low/medium/high using word count,
// stacked question marks and complexity-signaling terms.
func AnalyzeComplexity(query string) string {
	words := len(strings.Fields(query))
	questionMarks := strings.Count(query, "?")

	score := 0
	if words > 30 {
		score += 2
	} else if words > 12 {
		score++
	}
	if questionMarks > 1 {
		score++
	}

	lower := strings.ToLower(query)
	for _, term := range complexityTerms {
		if strings.Contains(lower, term) {
			score++
			break
		}
	}

	switch {
	case score >= 3:
		return ComplexityHigh
	case score >= 1:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}
