package corpus

import (
	"time"

	"sales-research-be/pkg/store"
)

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with an 'overlap' to preserve context at boundaries.
// This is a simple character-based splitter; good enough for retrieval.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}

// Chunk splits corpus text into immutable knowledge chunks with metadata.
func Chunk(text, source string, chunkSize, overlap int) []store.KnowledgeChunk {
	parts := SplitText(text, chunkSize, overlap)
	now := time.Now()

	chunks := make([]store.KnowledgeChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, store.KnowledgeChunk{
			Content: part,
			Metadata: store.ChunkMetadata{
				Source:     source,
				ChunkIndex: i,
				IndexedAt:  now,
			},
		})
	}
	return chunks
}
