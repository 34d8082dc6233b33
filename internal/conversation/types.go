// Package conversation stores the canonical conversations that inbound
// platform events are attached to and outbound sends are addressed by.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no conversation matches the lookup.
var ErrNotFound = errors.New("conversation not found")

// Conversation groups messages exchanged between a bot and one user in one
// platform channel.
type Conversation struct {
	ID        string    `json:"id"`
	BotID     string    `json:"bot_id"`
	Channel   string    `json:"channel"`
	Thread    string    `json:"thread"`
	UserRef   string    `json:"user_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// Key identifies the conversation series for a user in a platform channel.
// Channel is the channel type ("slack"), Thread the platform channel id.
type Key struct {
	Channel string
	Thread  string
	UserRef string
}

// Normalize trims all parts of the key.
func (k Key) Normalize() Key {
	return Key{
		Channel: strings.TrimSpace(k.Channel),
		Thread:  strings.TrimSpace(k.Thread),
		UserRef: strings.TrimSpace(k.UserRef),
	}
}

// Store persists conversations for every bot. Every method is bot scoped:
// a conversation of another bot is reported as ErrNotFound.
type Store interface {
	Get(ctx context.Context, botID, id string) (Conversation, error)
	// Recent returns the newest conversation for key, creating one when none
	// exists.
	Recent(ctx context.Context, botID string, key Key) (Conversation, error)
	ListByBot(ctx context.Context, botID string, limit int) ([]Conversation, error)
}

// Scope is a Store bound to one bot.
type Scope interface {
	BotID() string
	Get(ctx context.Context, id string) (Conversation, error)
	Recent(ctx context.Context, key Key) (Conversation, error)
	List(ctx context.Context, limit int) ([]Conversation, error)
}
