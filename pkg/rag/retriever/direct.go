package retriever

import (
	"sort"
	"strings"

	"sales-research-be/pkg/store"
)

// scoredSentence ranks one sentence from a fallback chunk.
type scoredSentence struct {
	text  string
	score float64
}

// ExtractDirectAnswer assembles a compact answer from the best sentences
// of the top fallback chunks, bypassing any model call. Returns the answer
// and a confidence estimate; callers decide whether confidence suffices.
func ExtractDirectAnswer(results []store.SearchResult, query string, maxSentences int) (string, float64) {
	if len(results) == 0 {
		return "", 0
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return "", 0
	}

	var candidates []scoredSentence
	for _, res := range results {
		for _, sentence := range splitSentences(res.Content) {
			score := scoreSentence(sentence, tokens)
			if score > 0 {
				candidates = append(candidates, scoredSentence{text: sentence, score: score})
			}
		}
	}
	if len(candidates) == 0 {
		return "", 0
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxSentences {
		candidates = candidates[:maxSentences]
	}

	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, strings.TrimSpace(c.text))
	}

	return strings.Join(parts, " "), candidates[0].score
}

func scoreSentence(sentence string, tokens []string) float64 {
	lower := strings.ToLower(sentence)

	matched := 0
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	score := float64(matched) / float64(len(tokens))

	// FAQ-style sentences tend to carry the actual answer
	if strings.Contains(sentence, "?") || startsWithInterrogative(lower) {
		score += 0.15
	}

	// Penalize rambling sentences
	if len(sentence) > 240 {
		score -= 0.2
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func startsWithInterrogative(lower string) bool {
	for _, w := range []string{"what", "how", "when", "where", "why", "who", "which"} {
		if strings.HasPrefix(lower, w+" ") {
			return true
		}
	}
	return false
}

// splitSentences is a naive period/question/exclamation splitter. Good
// enough for corpus prose; abbreviations produce shorter candidates that
// simply score lower.
func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '?' || r == '!' {
			s := strings.TrimSpace(sb.String())
			if len(s) > 10 {
				sentences = append(sentences, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); len(s) > 10 {
		sentences = append(sentences, s)
	}
	return sentences
}
