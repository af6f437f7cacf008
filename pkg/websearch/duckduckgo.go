package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sales-research-be/pkg/store"
)

// DuckDuckGoProvider scrapes the HTML endpoint. No credentials required,
// which makes it the tertiary fallback of last resort before synthetic
// placeholders.
type DuckDuckGoProvider struct {
	baseURL string
	client  *http.Client
}

var _ Provider = &DuckDuckGoProvider{}

func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseURL: "https://html.duckduckgo.com/html/",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *DuckDuckGoProvider) Available() bool { return true }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	endpoint := fmt.Sprintf("%s?q=%s", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The HTML endpoint rejects default Go user agents
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-bot/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo error (status %d)", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []store.SearchResult
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		link := s.Find(".result__a")
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())

		href = cleanRedirect(href)
		if href == "" || title == "" {
			return true
		}

		results = append(results, store.SearchResult{
			Content: snippet,
			URL:     href,
			Title:   title,
			Snippet: snippet,
		})
		return true
	})

	return results, nil
}

// cleanRedirect unwraps the uddg redirect parameter DuckDuckGo wraps
// result links in.
func cleanRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}
