package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id       uuid.UUID `json:"id"`
	Greeting string    `json:"greeting"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfileDTO biases research targeting when present.
type UserProfileDTO struct {
	Industry string `json:"industry,omitempty"`
	Region   string `json:"region,omitempty"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID       `json:"chat_session_id" validate:"required"`
	Chat          string          `json:"chat" validate:"required"`
	Profile       *UserProfileDTO `json:"profile,omitempty"`
}

type SourceDTO struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Snippet string `json:"snippet,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId uuid.UUID   `json:"chat_session_id"`
	Reply         string      `json:"reply"`
	Route         string      `json:"route"`
	Confidence    int         `json:"confidence"`
	Sources       []SourceDTO `json:"sources,omitempty"`
	SearchQueries []string    `json:"search_queries,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}
