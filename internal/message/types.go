// Package message stores canonical messages attached to conversations.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no message matches the lookup.
	ErrNotFound = errors.New("message not found")
	// ErrInvalidFeedback is returned for ratings other than -1 and 1.
	ErrInvalidFeedback = errors.New("feedback must be -1 or 1")
)

// Message is one persisted inbound message. Payload holds the canonical
// inbound payload as JSON.
type Message struct {
	ID             string          `json:"id"`
	BotID          string          `json:"bot_id"`
	ConversationID string          `json:"conversation_id"`
	AuthorRef      string          `json:"author_ref"`
	Payload        json.RawMessage `json:"payload"`
	Feedback       *int            `json:"feedback,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateInput is the input for persisting a message.
type CreateInput struct {
	ConversationID string
	AuthorRef      string
	Payload        json.RawMessage
}

// Store persists messages for every bot.
type Store interface {
	Create(ctx context.Context, botID string, input CreateInput) (Message, error)
	UpdateFeedback(ctx context.Context, botID, messageID string, feedback int) error
	ListByConversation(ctx context.Context, botID, conversationID string, limit int) ([]Message, error)
}

// Scope is a Store bound to one bot.
type Scope interface {
	BotID() string
	Create(ctx context.Context, input CreateInput) (Message, error)
	UpdateFeedback(ctx context.Context, messageID string, feedback int) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]Message, error)
}

func validFeedback(feedback int) bool {
	return feedback == -1 || feedback == 1
}
