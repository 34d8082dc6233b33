package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
)

func defaultSenders(typingDelay time.Duration) []channel.Sender[Fragment, Clients] {
	return []channel.Sender[Fragment, Clients]{
		typingSender{fallback: typingDelay},
		commonSender{},
	}
}

// typingSender shows the typing indicator for the payload delay.
type typingSender struct {
	fallback time.Duration
}

func (typingSender) Name() string { return "typing" }

func (typingSender) Handles(rc *renderContext) bool {
	return rc.Payload.Typing
}

func (s typingSender) Send(ctx context.Context, rc *renderContext) error {
	if rc.Clients.Bot == nil {
		return fmt.Errorf("telegram client is not configured")
	}
	id, err := chatID(rc)
	if err != nil {
		return err
	}
	if _, err := rc.Clients.Bot.Request(tgbotapi.NewChatAction(id, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return channel.Wait(ctx, channel.TypingDelay(rc.Payload, s.fallback))
}

// commonSender sends every fragment in order.
type commonSender struct{}

func (commonSender) Name() string { return "common" }

func (commonSender) Handles(rc *renderContext) bool {
	return len(rc.Fragments) > 0
}

func (commonSender) Send(ctx context.Context, rc *renderContext) error {
	if rc.Clients.Bot == nil {
		return fmt.Errorf("telegram client is not configured")
	}
	for i, fragment := range rc.Fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := rc.Clients.Bot.Send(fragment); err != nil {
			return fmt.Errorf("send fragment %d: %w", i, err)
		}
	}
	return nil
}
