package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const maxPageBytes = 512 * 1024

// PageCapture fetches a result page and converts it to markdown so the
// retrieval engine can index web content alongside the corpus.
type PageCapture struct {
	client    *http.Client
	converter *md.Converter
}

func NewPageCapture() *PageCapture {
	return &PageCapture{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		converter: md.NewConverter("", true, nil),
	}
}

// Fetch returns the page content as markdown text.
func (p *PageCapture) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-bot/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	markdown, err := p.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert page: %w", err)
	}
	return markdown, nil
}
