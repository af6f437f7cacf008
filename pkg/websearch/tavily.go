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

// TavilyProvider is the primary, research-grade provider.
type TavilyProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Provider = &TavilyProvider{}

func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey:  apiKey,
		baseURL: "https://api.tavily.com/search",
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (p *TavilyProvider) Name() string { return "tavily" }

func (p *TavilyProvider) Available() bool { return p.apiKey != "" }

type tavilyRequest struct {
	ApiKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"` // 0.0 - 1.0
	} `json:"results"`
}

func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	reqBody := tavilyRequest{
		ApiKey:     p.apiKey,
		Query:      query,
		MaxResults: maxResults,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: tavily", ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var tavilyResp tavilyResponse
	if err := json.Unmarshal(bodyBytes, &tavilyResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]store.SearchResult, 0, len(tavilyResp.Results))
	for _, r := range tavilyResp.Results {
		results = append(results, store.SearchResult{
			Content:        r.Content,
			URL:            r.URL,
			Title:          r.Title,
			Snippet:        snippetOf(r.Content),
			RelevanceScore: r.Score * 100, // provider-native score
		})
	}
	return results, nil
}
