package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionSummary is the rolling conversation summary carried by a session.
type SessionSummary struct {
	Summary    string    `json:"summary"`
	KeyTopics  []string  `json:"key_topics"`
	UserIntent string    `json:"user_intent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	LastQuery string
	Summary   *SessionSummary
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
