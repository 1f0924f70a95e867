// Package conversation stores chat conversations, their messages and the
// per-user context documents the assistant uses for personalization.
package conversation

import (
	"context"
	"errors"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Context types maintained for each user.
const (
	ContextTimePreferences    = "time_preferences"
	ContextTaskPreferences    = "task_preferences"
	ContextCommunicationStyle = "communication_style"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is a chat thread owned by one user.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn of a conversation.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UserContext maps a context type to its latest document.
type UserContext map[string]map[string]any

// Store persists conversations and user context.
type Store interface {
	// CreateOrGet returns conversationID if it exists and belongs to userID,
	// otherwise it starts a new conversation for userID.
	CreateOrGet(ctx context.Context, userID, conversationID string) (Conversation, error)

	// AppendMessage adds a message to a conversation.
	AppendMessage(ctx context.Context, conversationID string, msg Message) error

	// History returns up to limit of the most recent messages, oldest first.
	History(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// UserContext returns every context document stored for userID.
	UserContext(ctx context.Context, userID string) (UserContext, error)

	// UpdateUserContext replaces the document of the given type.
	UpdateUserContext(ctx context.Context, userID, contextType string, data map[string]any) error
}
