package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
)

func defaultSenders(typingDelay time.Duration) []channel.Sender[Fragment, Clients] {
	return []channel.Sender[Fragment, Clients]{
		typingSender{fallback: typingDelay},
		commonSender{},
	}
}

// typingSender pauses before the real messages go out. Slack offers bots no
// typing indicator, so the pause is all that is left of it.
type typingSender struct {
	fallback time.Duration
}

func (typingSender) Name() string { return "typing" }

func (typingSender) Handles(rc *renderContext) bool {
	return rc.Payload.Typing
}

func (s typingSender) Send(ctx context.Context, rc *renderContext) error {
	return channel.Wait(ctx, channel.TypingDelay(rc.Payload, s.fallback))
}

// commonSender posts every fragment, in order, to the conversation channel.
type commonSender struct{}

func (commonSender) Name() string { return "common" }

func (commonSender) Handles(rc *renderContext) bool {
	return len(rc.Fragments) > 0
}

func (commonSender) Send(ctx context.Context, rc *renderContext) error {
	if rc.Clients.API == nil {
		return fmt.Errorf("slack client is not configured")
	}
	for i, fragment := range rc.Fragments {
		options := []slack.MsgOption{slack.MsgOptionText(fragment.Text, false)}
		if len(fragment.Blocks) > 0 {
			options = append(options, slack.MsgOptionBlocks(fragment.Blocks...))
		}
		if _, _, err := rc.Clients.API.PostMessageContext(ctx, rc.Thread, options...); err != nil {
			return fmt.Errorf("post fragment %d: %w", i, err)
		}
	}
	return nil
}
