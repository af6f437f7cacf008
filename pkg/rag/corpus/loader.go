package corpus

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Loader reads the knowledge corpus from the first non-empty candidate
// file. Candidates are tried in priority order and never merged: the first
// usable file wins exclusively.
type Loader struct {
	candidates []string
	logger     *log.Logger
}

func NewLoader(candidates []string, logger *log.Logger) *Loader {
	return &Loader{
		candidates: candidates,
		logger:     logger,
	}
}

// Load returns the cleaned corpus text and the path it came from.
func (l *Loader) Load() (string, string, error) {
	for _, path := range l.candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			l.logger.Printf("[CORPUS] Candidate %s unavailable: %v", path, err)
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			l.logger.Printf("[CORPUS] Candidate %s is empty, trying next", path)
			continue
		}

		cleaned := Preprocess(text)
		l.logger.Printf("[CORPUS] Loaded %s (%d chars raw, %d chars cleaned)", path, len(text), len(cleaned))
		return cleaned, path, nil
	}
	return "", "", fmt.Errorf("no usable corpus found in %d candidates", len(l.candidates))
}

// Preprocess normalizes corpus text for chunking. Predominantly Q/A
// formatted content is flattened into answer-only paragraphs; anything else
// gets heading and markup lines stripped.
func Preprocess(text string) string {
	if isMostlyQA(text) {
		return flattenQA(text)
	}
	return stripMarkup(text)
}

// isMostlyQA checks whether the corpus is dominated by Q:/A: style pairs.
func isMostlyQA(text string) bool {
	lines := strings.Split(text, "\n")
	var content, qa int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		content++
		if isQALine(trimmed) {
			qa++
		}
	}
	if content == 0 {
		return false
	}
	return float64(qa)/float64(content) > 0.4
}

func isQALine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range []string{"q:", "a:", "question:", "answer:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// flattenQA keeps questions as a lead-in and answers as the body, so a
// chunk always carries the full answer text it will be cited for.
func flattenQA(text string) string {
	var sb strings.Builder
	var question string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "q:"):
			question = strings.TrimSpace(trimmed[2:])
		case strings.HasPrefix(lower, "question:"):
			question = strings.TrimSpace(trimmed[len("question:"):])
		case strings.HasPrefix(lower, "a:"):
			writeQAPair(&sb, question, strings.TrimSpace(trimmed[2:]))
			question = ""
		case strings.HasPrefix(lower, "answer:"):
			writeQAPair(&sb, question, strings.TrimSpace(trimmed[len("answer:"):]))
			question = ""
		default:
			// Continuation of the previous answer
			sb.WriteString(trimmed)
			sb.WriteString(" ")
		}
	}
	return strings.TrimSpace(sb.String())
}

func writeQAPair(sb *strings.Builder, question, answer string) {
	if question != "" {
		sb.WriteString(question)
		sb.WriteString(" ")
	}
	sb.WriteString(answer)
	sb.WriteString("\n\n")
}

// stripMarkup drops heading and decoration lines from markdown-ish corpora.
func stripMarkup(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Trim(trimmed, "-=*_") == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
