package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_REJECTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes emitted by the assistant.
const (
	TypeQueryRejected     = "QUERY_REJECTED"
	TypeKnowledgeGap      = "KNOWLEDGE_GAP"
	TypeResearchCompleted = "RESEARCH_COMPLETED"
)

// BaseEvent is the generic implementation behind the domain constructors.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewQueryRejected records an off-topic query turned away by the
// relevance filter.
func NewQueryRejected(userID, query, reason string, confidence int) Event {
	return BaseEvent{
		Type: TypeQueryRejected,
		Data: map[string]interface{}{
			"user_id":    userID,
			"query":      query,
			"reason":     reason,
			"confidence": confidence,
		},
		OccurredAt: time.Now(),
	}
}

// NewKnowledgeGap records a knowledge-base query that produced no usable
// retrieval, a signal for corpus curation.
func NewKnowledgeGap(userID, query string) Event {
	return BaseEvent{
		Type: TypeKnowledgeGap,
		Data: map[string]interface{}{
			"user_id": userID,
			"query":   query,
		},
		OccurredAt: time.Now(),
	}
}

// NewResearchCompleted records a finished research run and its source count.
func NewResearchCompleted(userID, query, taskType string, sourceCount int) Event {
	return BaseEvent{
		Type: TypeResearchCompleted,
		Data: map[string]interface{}{
			"user_id":      userID,
			"query":        query,
			"task_type":    taskType,
			"source_count": sourceCount,
		},
		OccurredAt: time.Now(),
	}
}
