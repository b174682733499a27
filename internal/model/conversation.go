package model

import "time"

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is an ordered thread of messages owned by one user
type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Message is a single immutable entry in a conversation
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	Content        string    `json:"content" db:"content"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// ChatRequest is the payload of a chat turn
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId,omitempty"`
}

// ChatTurnResult is returned by a chat turn
type ChatTurnResult struct {
	Message      *Message       `json:"message"`
	Conversation *Conversation  `json:"conversation"`
	Listings     []ListingMatch `json:"listings,omitempty"`
	Filters      *SearchFilters `json:"filters,omitempty"`
	Degraded     bool           `json:"degraded"` // reply produced without the LLM
}
