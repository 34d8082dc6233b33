package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
)

type recordingFeedback struct {
	calls []feedbackCall
	err   error
}

type feedbackCall struct {
	botID   string
	eventID string
	rating  int
}

func (f *recordingFeedback) UpdateFeedback(_ context.Context, botID, eventID string, feedback int) error {
	f.calls = append(f.calls, feedbackCall{botID: botID, eventID: eventID, rating: feedback})
	return f.err
}

type failingResponder struct {
	calls int
}

func (r *failingResponder) Respond(context.Context, string, *slack.WebhookMessage) error {
	r.calls++
	return errors.New("expired_url")
}

func newTestRouter(feedback FeedbackUpdater) (*ActionRouter, *recordingResponder) {
	responder := &recordingResponder{log: &eventLog{}}
	return NewActionRouter(newTestLogger(), responder, feedback), responder
}

func TestRouteReplaceButtons(t *testing.T) {
	t.Parallel()

	router, responder := newTestRouter(nil)
	payload, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID:    "replace_buttons1",
		Label:       "No",
		Value:       "no",
		ResponseURL: "https://hooks.slack.test/r",
	})
	if !ok {
		t.Fatal("expected quick reply")
	}
	if payload != channel.QuickReply("No", "no") {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(responder.msgs) != 1 {
		t.Fatalf("expected 1 mutation, got %d", len(responder.msgs))
	}
	msg := responder.msgs[0]
	if !msg.ReplaceOriginal || msg.Text != "*No*" {
		t.Fatalf("unexpected mutation: %+v", msg)
	}
	if responder.urls[0] != "https://hooks.slack.test/r" {
		t.Fatalf("unexpected response url: %s", responder.urls[0])
	}
}

func TestRouteRemoveButtons(t *testing.T) {
	t.Parallel()

	router, responder := newTestRouter(nil)
	_, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID:    "remove_buttons",
		Label:       "Done",
		Value:       "done",
		ResponseURL: "https://hooks.slack.test/r",
	})
	if !ok {
		t.Fatal("expected quick reply")
	}
	if len(responder.msgs) != 1 || !responder.msgs[0].DeleteOriginal {
		t.Fatalf("expected delete mutation, got %+v", responder.msgs)
	}
}

func TestRouteMutationFailureStillReplies(t *testing.T) {
	t.Parallel()

	responder := &failingResponder{}
	router := NewActionRouter(newTestLogger(), responder, nil)
	payload, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID:    "replace_buttons0",
		Label:       "Yes",
		Value:       "yes",
		ResponseURL: "https://hooks.slack.test/r",
	})
	if !ok || payload.Payload != "yes" {
		t.Fatalf("expected quick reply, got %+v %v", payload, ok)
	}
	if responder.calls != 1 {
		t.Fatalf("expected 1 mutation attempt, got %d", responder.calls)
	}
}

func TestRouteOptionSelected(t *testing.T) {
	t.Parallel()

	router, responder := newTestRouter(nil)
	payload, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID:      "option_selected",
		SelectedLabel: "Yes",
		SelectedValue: "yes",
		ResponseURL:   "https://hooks.slack.test/r",
	})
	if !ok {
		t.Fatal("expected quick reply")
	}
	if payload.Type != channel.InboundQuickReply || payload.Text != "Yes" || payload.Payload != "yes" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(responder.msgs) != 0 {
		t.Fatalf("option selection must not mutate, got %d", len(responder.msgs))
	}
}

func TestRouteDiscard(t *testing.T) {
	t.Parallel()

	router, responder := newTestRouter(nil)
	if _, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID:    "discard_action",
		ResponseURL: "https://hooks.slack.test/r",
	}); ok {
		t.Fatal("discard must not produce an inbound message")
	}
	if len(responder.msgs) != 0 {
		t.Fatalf("discard must not mutate, got %d", len(responder.msgs))
	}
}

func TestRouteUnknownAction(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(nil)
	if _, ok := router.Route(context.Background(), testBotID, ActionEvent{ActionID: "url0_0"}); ok {
		t.Fatal("unknown action must not produce an inbound message")
	}
}

func TestRouteFeedback(t *testing.T) {
	t.Parallel()

	feedback := &recordingFeedback{}
	router, responder := newTestRouter(feedback)
	_, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID: "feedback_down",
		BlockID:  "feedback-evt-9",
		Value:    "-1",
	})
	if ok {
		t.Fatal("feedback must not produce an inbound message")
	}
	if len(feedback.calls) != 1 {
		t.Fatalf("expected 1 feedback update, got %d", len(feedback.calls))
	}
	want := feedbackCall{botID: testBotID, eventID: "evt-9", rating: -1}
	if feedback.calls[0] != want {
		t.Fatalf("unexpected feedback call: %+v", feedback.calls[0])
	}
	if len(responder.msgs) != 0 {
		t.Fatalf("feedback must not mutate, got %d", len(responder.msgs))
	}
}

func TestRouteFeedbackBestEffort(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(nil)
	if _, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID: "feedback_up",
		BlockID:  "feedback-evt-1",
		Value:    "1",
	}); ok {
		t.Fatal("feedback without updater must not produce an inbound message")
	}

	failing := &recordingFeedback{err: errors.New("boom")}
	router, _ = newTestRouter(failing)
	if _, ok := router.Route(context.Background(), testBotID, ActionEvent{
		ActionID: "feedback_up",
		BlockID:  "feedback-evt-1",
		Value:    "1",
	}); ok {
		t.Fatal("failed feedback must not produce an inbound message")
	}
	if len(failing.calls) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(failing.calls))
	}
}

func TestParseFeedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ev      ActionEvent
		wantID  string
		wantVal int
		wantErr bool
	}{
		{name: "up", ev: ActionEvent{BlockID: "feedback-e1", Value: "1"}, wantID: "e1", wantVal: 1},
		{name: "down", ev: ActionEvent{BlockID: "feedback-e1", Value: " -1 "}, wantID: "e1", wantVal: -1},
		{name: "wrong block", ev: ActionEvent{BlockID: "choices", Value: "1"}, wantErr: true},
		{name: "no event id", ev: ActionEvent{BlockID: "feedback-", Value: "1"}, wantErr: true},
		{name: "bad value", ev: ActionEvent{BlockID: "feedback-e1", Value: "up"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, val, err := parseFeedback(tt.ev)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if id != tt.wantID || val != tt.wantVal {
				t.Fatalf("got %s %d", id, val)
			}
		})
	}
}
