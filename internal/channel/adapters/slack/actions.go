package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
)

// ResponseURLClient rewrites or deletes the message an interaction came from.
type ResponseURLClient interface {
	Respond(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error
}

// ResponseURLFunc adapts a function to ResponseURLClient.
type ResponseURLFunc func(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error

func (f ResponseURLFunc) Respond(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error {
	return f(ctx, responseURL, msg)
}

// DefaultResponder posts to response_url with slack.PostWebhookContext.
var DefaultResponder ResponseURLClient = ResponseURLFunc(slack.PostWebhookContext)

// FeedbackUpdater records a rating for a previously stored message.
type FeedbackUpdater interface {
	UpdateFeedback(ctx context.Context, botID, eventID string, feedback int) error
}

// ActionRouter maps interactive actions to inbound payloads and the message
// mutations that go with them.
type ActionRouter struct {
	logger    *slog.Logger
	responder ResponseURLClient
	feedback  FeedbackUpdater
}

// NewActionRouter creates an ActionRouter. feedback may be nil.
func NewActionRouter(log *slog.Logger, responder ResponseURLClient, feedback FeedbackUpdater) *ActionRouter {
	if log == nil {
		log = slog.Default()
	}
	if responder == nil {
		responder = DefaultResponder
	}
	return &ActionRouter{
		logger:    log.With(slog.String("component", "slack_actions")),
		responder: responder,
		feedback:  feedback,
	}
}

// Route handles ev for botID. It reports the quick reply to receive, or false
// when the action produces no inbound message. Message mutations are issued
// before Route returns.
func (r *ActionRouter) Route(ctx context.Context, botID string, ev ActionEvent) (channel.InboundPayload, bool) {
	id := ev.ActionID
	switch {
	case strings.HasPrefix(id, actionDiscard):
		return channel.InboundPayload{}, false
	case strings.HasPrefix(id, actionReplaceButtons):
		r.mutate(ctx, botID, ev, &slack.WebhookMessage{ReplaceOriginal: true, Text: "*" + ev.Label + "*"})
		return channel.QuickReply(ev.Label, ev.Value), true
	case strings.HasPrefix(id, actionRemoveButtons):
		r.mutate(ctx, botID, ev, &slack.WebhookMessage{DeleteOriginal: true})
		return channel.QuickReply(ev.Label, ev.Value), true
	case id == actionOptionSelected:
		return channel.QuickReply(ev.SelectedLabel, ev.SelectedValue), true
	case strings.HasPrefix(id, actionFeedback):
		r.recordFeedback(ctx, botID, ev)
		return channel.InboundPayload{}, false
	default:
		r.logger.Debug("unhandled action", slog.String("bot_id", botID), slog.String("action_id", id))
		return channel.InboundPayload{}, false
	}
}

// mutate failures are logged: the user's choice is still delivered.
func (r *ActionRouter) mutate(ctx context.Context, botID string, ev ActionEvent, msg *slack.WebhookMessage) {
	if strings.TrimSpace(ev.ResponseURL) == "" {
		r.logger.Warn("action without response_url", slog.String("bot_id", botID), slog.String("action_id", ev.ActionID))
		return
	}
	if err := r.responder.Respond(ctx, ev.ResponseURL, msg); err != nil {
		r.logger.Warn("update interactive message failed",
			slog.String("bot_id", botID),
			slog.String("action_id", ev.ActionID),
			slog.Any("error", err),
		)
	}
}

func (r *ActionRouter) recordFeedback(ctx context.Context, botID string, ev ActionEvent) {
	log := r.logger.With(slog.String("bot_id", botID), slog.String("block_id", ev.BlockID))
	if r.feedback == nil {
		log.Debug("feedback dropped: no updater")
		return
	}
	eventID, rating, err := parseFeedback(ev)
	if err != nil {
		log.Warn("feedback dropped", slog.Any("error", err))
		return
	}
	if err := r.feedback.UpdateFeedback(ctx, botID, eventID, rating); err != nil {
		log.Warn("feedback update failed", slog.String("event_id", eventID), slog.Any("error", err))
	}
}

func parseFeedback(ev ActionEvent) (string, int, error) {
	if !strings.HasPrefix(ev.BlockID, feedbackBlockPrefix) {
		return "", 0, fmt.Errorf("unexpected feedback block id %q", ev.BlockID)
	}
	eventID := strings.TrimPrefix(ev.BlockID, feedbackBlockPrefix)
	if eventID == "" {
		return "", 0, fmt.Errorf("feedback block id has no event id")
	}
	rating, err := strconv.Atoi(strings.TrimSpace(ev.Value))
	if err != nil {
		return "", 0, fmt.Errorf("feedback value %q: %w", ev.Value, err)
	}
	return eventID, rating, nil
}
