package dto

import "time"

type ResearchRequest struct {
	Query    string          `json:"query" validate:"required"`
	TaskType string          `json:"task_type,omitempty"`
	Profile  *UserProfileDTO `json:"profile,omitempty"`
}

type ResearchResponse struct {
	Answer        string      `json:"answer"`
	TaskType      string      `json:"task_type"`
	Sources       []SourceDTO `json:"sources"`
	SearchQueries []string    `json:"search_queries"`
	Timestamp     time.Time   `json:"timestamp"`
}

// StartResearchResponse acknowledges a streamed research run. Clients
// follow the run on the websocket channel.
type StartResearchResponse struct {
	RunId string `json:"run_id"`
	Topic string `json:"topic"`
}
