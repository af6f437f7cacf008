package websearch

import (
	"context"
	"errors"
	"strings"

	"sales-research-be/pkg/store"
)

// Provider is one web-search backend in the fallback chain.
type Provider interface {
	Name() string
	// Available reports whether the provider is configured (credentials
	// present, endpoint known). Unconfigured providers are skipped.
	Available() bool
	Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error)
}

// ErrQuotaExceeded marks a provider that answered but refused for usage
// reasons; the chain treats it like any other provider failure, while
// callers may decide to skip web grounding entirely for the turn.
var ErrQuotaExceeded = errors.New("search provider quota exceeded")

// IsQuotaError matches quota/rate-limit failures from any provider.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "status 429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}

// PlaceholderScheme prefixes the synthetic results produced when every
// provider comes back empty. Downstream citation display filters these out.
const PlaceholderScheme = "placeholder://"

// IsPlaceholderURL reports whether a result URL is synthetic.
func IsPlaceholderURL(url string) bool {
	return strings.HasPrefix(url, PlaceholderScheme)
}
