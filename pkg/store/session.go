package store

import "time"

// Message is a single conversation turn in a provider-agnostic shape.
// Ordering is chronological; once appended a message is never mutated.
type Message struct {
	Role      string    `json:"role"` // "user" | "assistant" | "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the compact rolling description of a session, regenerated
// every few turns so long conversations keep a stable anchor.
type Summary struct {
	Summary    string    `json:"summary"`
	KeyTopics  []string  `json:"key_topics"`
	UserIntent string    `json:"user_intent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Session represents the active conversation state in memory
type Session struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Messages []Message `json:"messages"`
	Summary  *Summary  `json:"summary,omitempty"`

	// Metadata for last interaction
	LastQuery string `json:"last_query"`
}

// Append adds a turn to the session history.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// RecentContext returns the last n messages for cheap context-aware checks
// (follow-up detection, routing).
func (s *Session) RecentContext(n int) []Message {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
