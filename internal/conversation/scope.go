package conversation

import (
	"context"

	"github.com/memohai/chatbridge/internal/tenant"
)

// Scopes hands out one Scope per bot.
type Scopes = tenant.Cache[Scope]

// NewScopes binds store to per-bot scopes.
func NewScopes(store Store) *Scopes {
	return tenant.New[Scope](func(_ context.Context, botID string) (Scope, error) {
		return &scoped{store: store, botID: botID}, nil
	})
}

type scoped struct {
	store Store
	botID string
}

func (s *scoped) BotID() string {
	return s.botID
}

func (s *scoped) Get(ctx context.Context, id string) (Conversation, error) {
	return s.store.Get(ctx, s.botID, id)
}

func (s *scoped) Recent(ctx context.Context, key Key) (Conversation, error) {
	return s.store.Recent(ctx, s.botID, key)
}

func (s *scoped) List(ctx context.Context, limit int) ([]Conversation, error) {
	return s.store.ListByBot(ctx, s.botID, limit)
}
