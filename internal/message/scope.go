package message

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

func (s *scoped) Create(ctx context.Context, input CreateInput) (Message, error) {
	return s.store.Create(ctx, s.botID, input)
}

func (s *scoped) UpdateFeedback(ctx context.Context, messageID string, feedback int) error {
	return s.store.UpdateFeedback(ctx, s.botID, messageID, feedback)
}

func (s *scoped) ListByConversation(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	return s.store.ListByConversation(ctx, s.botID, conversationID, limit)
}

// FeedbackUpdater records user ratings on previously stored messages.
type FeedbackUpdater struct {
	scopes *Scopes
}

// NewFeedbackUpdater creates a FeedbackUpdater over scopes.
func NewFeedbackUpdater(scopes *Scopes) *FeedbackUpdater {
	return &FeedbackUpdater{scopes: scopes}
}

// UpdateFeedback sets the rating of message eventID for botID.
func (u *FeedbackUpdater) UpdateFeedback(ctx context.Context, botID, eventID string, feedback int) error {
	scope, err := u.scopes.ForTenant(ctx, botID)
	if err != nil {
		return err
	}
	return scope.UpdateFeedback(ctx, eventID, feedback)
}
