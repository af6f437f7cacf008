package retriever

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"sales-research-be/pkg/store"
)

// Tokenize lowercases and splits a query, dropping tokens too short to
// carry meaning.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// LexicalSearch is the always-available keyword-overlap fallback. A chunk
// qualifies only when at least minMatchRatio of the query tokens appear in
// it (rounded up, minimum one token). Exact-phrase hits are boosted and
// scores are normalized by query length.
func LexicalSearch(chunks []store.KnowledgeChunk, query string, topK int, minMatchRatio float64) []store.SearchResult {
	tokens := Tokenize(query)
	if len(tokens) == 0 || len(chunks) == 0 {
		return nil
	}

	required := int(math.Ceil(minMatchRatio * float64(len(tokens))))
	if required < 1 {
		required = 1
	}

	phrase := strings.ToLower(strings.TrimSpace(query))

	var results []store.SearchResult
	for _, chunk := range chunks {
		content := strings.ToLower(chunk.Content)

		matched := 0
		for _, token := range tokens {
			if strings.Contains(content, token) {
				matched++
			}
		}
		if matched < required {
			continue
		}

		score := float64(matched) / float64(len(tokens))
		if strings.Contains(content, phrase) {
			score += 0.25 // exact phrase hit
		}
		if score > 1.0 {
			score = 1.0
		}

		results = append(results, chunkResult(chunk, score))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// chunkResult maps a knowledge chunk onto the shared search-result shape,
// using a kb:// pseudo-URL so citations can distinguish corpus hits from
// web hits.
func chunkResult(chunk store.KnowledgeChunk, score float64) store.SearchResult {
	snippet := chunk.Content
	if len(snippet) > 160 {
		snippet = snippet[:160] + "..."
	}
	return store.SearchResult{
		Content:        chunk.Content,
		URL:            fmt.Sprintf("kb://%s/%d", chunk.Metadata.Source, chunk.Metadata.ChunkIndex),
		Title:          fmt.Sprintf("Knowledge Base (%s)", chunk.Metadata.Source),
		Snippet:        snippet,
		RelevanceScore: score,
	}
}
