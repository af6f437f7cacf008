package store

import "time"

// SearchResult is one normalized hit coming out of either the web-search
// chain or the retrieval engine. Ephemeral; deduplicated by URL before use.
type SearchResult struct {
	Content        string  `json:"content"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// DetailedSource carries citation display data for one source.
type DetailedSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Snippet string `json:"snippet"`
}

// ResearchResult is the terminal artifact of one research invocation.
// Empty Sources means "research degraded", not "research failed".
type ResearchResult struct {
	Answer          string           `json:"answer"`
	Sources         []string         `json:"sources"`
	DetailedSources []DetailedSource `json:"detailed_sources"`
	SearchQueries   []string         `json:"search_queries"`
	Timestamp       time.Time        `json:"timestamp"`
	TaskType        string           `json:"task_type"`
}

// Research task types
const (
	TaskCompanyAnalysis = "company-analysis"
	TaskICPDevelopment  = "icp-development"
	TaskLeadGeneration  = "lead-generation"
	TaskOpenResearch    = "open-research"
)
