package slack

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/memohai/chatbridge/internal/channel"
)

// Message subtypes that never become inbound messages.
var discardedSubtypes = map[string]struct{}{
	"message_changed": {},
	"message_deleted": {},
	"bot_message":     {},
}

// Envelope is the outer Events API request.
type Envelope struct {
	Type      string
	Challenge string
	EventID   string
	Message   *MessageEvent
}

// File is the part of a shared file used for text fallback.
type File struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// MessageEvent is a plain message posted in a channel the bot can see.
type MessageEvent struct {
	Type    string      `json:"type"`
	Subtype string      `json:"subtype"`
	BotID   string      `json:"bot_id"`
	Text    string      `json:"text"`
	Files   []File      `json:"files"`
	Channel channel.Ref `json:"channel"`
	User    channel.Ref `json:"user"`
	TS      string      `json:"ts"`
	EventID string      `json:"-"`
}

// MessageKey identifies the posted message itself. Slack delivers one
// mention as both a message and an app_mention event with different event
// ids but the same channel and ts.
func (e MessageEvent) MessageKey() string {
	ts := strings.TrimSpace(e.TS)
	if ts == "" {
		return ""
	}
	return "msg:" + e.Channel.String() + ":" + ts
}

// Refs returns the routing identifiers of the event.
func (e MessageEvent) Refs() channel.Refs {
	return channel.Refs{Channel: e.Channel, User: e.User}
}

// ActionEvent is the first block action of an interaction payload.
type ActionEvent struct {
	ActionID      string
	BlockID       string
	Label         string
	Value         string
	SelectedLabel string
	SelectedValue string
	ResponseURL   string
	Refs          channel.Refs
}

type envelopeWire struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

// DecodeEventCallback decodes an Events API request body. Inner events other
// than messages leave Message nil.
func DecodeEventCallback(body []byte) (Envelope, error) {
	var wire envelopeWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", channel.ErrMalformedEvent, err)
	}
	env := Envelope{Type: wire.Type, Challenge: wire.Challenge, EventID: wire.EventID}
	switch wire.Type {
	case slackevents.URLVerification:
		if wire.Challenge == "" {
			return Envelope{}, fmt.Errorf("%w: url_verification without challenge", channel.ErrMalformedEvent)
		}
		return env, nil
	case slackevents.CallbackEvent:
	default:
		return Envelope{}, fmt.Errorf("%w: unsupported envelope type %q", channel.ErrMalformedEvent, wire.Type)
	}
	if len(wire.Event) == 0 {
		return Envelope{}, fmt.Errorf("%w: event_callback without event", channel.ErrMalformedEvent)
	}
	var msg MessageEvent
	if err := json.Unmarshal(wire.Event, &msg); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", channel.ErrMalformedEvent, err)
	}
	switch msg.Type {
	case string(slackevents.Message), string(slackevents.AppMention):
		msg.EventID = wire.EventID
		env.Message = &msg
	}
	return env, nil
}

// NormalizeMessage turns a message event into an inbound payload. It reports
// false for edits, deletions and anything posted by a bot.
func NormalizeMessage(ev MessageEvent) (channel.InboundPayload, bool) {
	if _, drop := discardedSubtypes[ev.Subtype]; drop {
		return channel.InboundPayload{}, false
	}
	if strings.TrimSpace(ev.BotID) != "" {
		return channel.InboundPayload{}, false
	}
	if text := strings.TrimSpace(ev.Text); text != "" {
		return channel.InboundPayload{Type: channel.InboundText, Text: text}, true
	}
	if len(ev.Files) > 0 {
		file := ev.Files[0]
		text := strings.TrimSpace(file.Name)
		if text == "" {
			text = strings.TrimSpace(file.Title)
		}
		if text != "" {
			return channel.InboundPayload{Type: channel.InboundFile, Text: text}, true
		}
	}
	return channel.InboundPayload{Type: channel.InboundText, Text: "N/A"}, true
}

// DecodeInteraction decodes the JSON "payload" field of an interactivity
// request into its first block action.
func DecodeInteraction(payload []byte) (ActionEvent, error) {
	var callback slack.InteractionCallback
	if err := json.Unmarshal(payload, &callback); err != nil {
		return ActionEvent{}, fmt.Errorf("%w: %w", channel.ErrMalformedEvent, err)
	}
	if callback.Type != slack.InteractionTypeBlockActions || len(callback.ActionCallback.BlockActions) == 0 {
		return ActionEvent{}, fmt.Errorf("%w: no block action in %q interaction", channel.ErrMalformedEvent, callback.Type)
	}
	var refs channel.Refs
	if err := json.Unmarshal(payload, &refs); err != nil {
		return ActionEvent{}, fmt.Errorf("%w: %w", channel.ErrMalformedEvent, err)
	}
	action := callback.ActionCallback.BlockActions[0]
	ev := ActionEvent{
		ActionID:      action.ActionID,
		BlockID:       action.BlockID,
		Label:         action.Text.Text,
		Value:         action.Value,
		SelectedValue: action.SelectedOption.Value,
		ResponseURL:   callback.ResponseURL,
		Refs:          refs,
	}
	if action.SelectedOption.Text != nil {
		ev.SelectedLabel = action.SelectedOption.Text.Text
	}
	return ev, nil
}

// eventWindow remembers Events API ids for a while so redeliveries are
// dropped. One window exists per bot.
type eventWindow struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func newEventWindow(ttl time.Duration) *eventWindow {
	return &eventWindow{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// Claim records id and reports whether it was new within the window. Empty
// ids are always new.
func (w *eventWindow) Claim(id string) bool {
	if id == "" {
		return true
	}
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, at := range w.seen {
		if now.Sub(at) > w.ttl {
			delete(w.seen, key)
		}
	}
	if _, ok := w.seen[id]; ok {
		return false
	}
	w.seen[id] = now
	return true
}

// Release forgets id so a redelivery is processed again.
func (w *eventWindow) Release(id string) {
	w.mu.Lock()
	delete(w.seen, id)
	w.mu.Unlock()
}
