package message

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps messages in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Message
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, botID string, input CreateInput) (Message, error) {
	item := Message{
		ID:             uuid.NewString(),
		BotID:          botID,
		ConversationID: strings.TrimSpace(input.ConversationID),
		AuthorRef:      strings.TrimSpace(input.AuthorRef),
		Payload:        append([]byte(nil), input.Payload...),
		CreatedAt:      s.now().UTC(),
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, nil
}

func (s *MemoryStore) UpdateFeedback(_ context.Context, botID, messageID string, feedback int) error {
	if !validFeedback(feedback) {
		return ErrInvalidFeedback
	}
	messageID = strings.TrimSpace(messageID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == messageID && s.items[i].BotID == botID {
			value := feedback
			s.items[i].Feedback = &value
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListByConversation(_ context.Context, botID, conversationID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Message, 0)
	for _, item := range s.items {
		if item.BotID != botID || item.ConversationID != conversationID {
			continue
		}
		items = append(items, item)
	}
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items, nil
}
