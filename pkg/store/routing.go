package store

// Route constants for the query classifier
const (
	RouteKnowledgeBase = "knowledge-base"
	RouteResearch      = "research"
	RouteGeneralChat   = "general-chat"
	RouteReject        = "reject"
)

// RouteDecision is the classifier's verdict for one turn. Produced fresh
// per turn and never persisted.
type RouteDecision struct {
	Route      string `json:"route"`
	Confidence int    `json:"confidence"` // 0-100, heuristic, not calibrated
	Reasoning  string `json:"reasoning"`
	UseWeb     bool   `json:"use_web"`
	UseRAG     bool   `json:"use_rag"`
}

// IsReject reports whether this decision forbids any search or retrieval
// call for the turn.
func (d *RouteDecision) IsReject() bool {
	return d.Route == RouteReject
}
