package dto

import "time"

type HealthResponse struct {
	Status          string `json:"status"`
	RetrievalState  string `json:"retrieval_state"`
	ClassifierOpen  bool   `json:"classifier_breaker_open"`
	ActiveSessions  int    `json:"active_sessions"`
	IndexedChunks   int    `json:"indexed_chunks"`
	SearchProviders int    `json:"search_providers"`
}

type RejectionRecord struct {
	UserId     string    `json:"user_id"`
	Query      string    `json:"query"`
	Reason     string    `json:"reason"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
