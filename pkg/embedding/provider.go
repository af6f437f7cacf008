package embedding

import "strings"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

// Task types passed to providers that distinguish query vs document vectors
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// IsUnavailable reports whether an embedding error indicates the provider
// cannot serve this process anymore (quota exhausted, bad credentials).
// Transient network errors are NOT unavailability.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"status 401", "status 403", "status 429",
		"quota", "api key", "unauthorized", "permission denied",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
