package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Conversation
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, botID, id string) (Conversation, error) {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id && item.BotID == botID {
			return item, nil
		}
	}
	return Conversation{}, ErrNotFound
}

func (s *MemoryStore) Recent(_ context.Context, botID string, key Key) (Conversation, error) {
	key = key.Normalize()
	if key.Channel == "" || key.Thread == "" {
		return Conversation{}, fmt.Errorf("conversation key requires channel and thread")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if item.BotID == botID && item.Channel == key.Channel && item.Thread == key.Thread && item.UserRef == key.UserRef {
			return item, nil
		}
	}
	item := Conversation{
		ID:        uuid.NewString(),
		BotID:     botID,
		Channel:   key.Channel,
		Thread:    key.Thread,
		UserRef:   key.UserRef,
		CreatedAt: s.now().UTC(),
	}
	s.items = append(s.items, item)
	return item, nil
}

func (s *MemoryStore) ListByBot(_ context.Context, botID string, limit int) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Conversation, 0)
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].BotID != botID {
			continue
		}
		items = append(items, s.items[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}
