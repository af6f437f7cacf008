package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sales-research-be/pkg/store"
)

// SerperProvider is the secondary credentialed provider, used only when a
// key is configured.
type SerperProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Provider = &SerperProvider{}

func NewSerperProvider(apiKey string) *SerperProvider {
	return &SerperProvider{
		apiKey:  apiKey,
		baseURL: "https://google.serper.dev/search",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *SerperProvider) Name() string { return "serper" }

func (p *SerperProvider) Available() bool { return p.apiKey != "" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	reqBody := serperRequest{Q: query, Num: maxResults}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: serper", ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var serperResp serperResponse
	if err := json.Unmarshal(bodyBytes, &serperResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]store.SearchResult, 0, len(serperResp.Organic))
	for _, r := range serperResp.Organic {
		results = append(results, store.SearchResult{
			Content: r.Snippet,
			URL:     r.Link,
			Title:   r.Title,
			Snippet: r.Snippet,
			// No native score; the chain assigns a heuristic one
		})
	}
	return results, nil
}
