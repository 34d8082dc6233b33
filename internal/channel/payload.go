package channel

import (
	"fmt"
	"strings"

	"github.com/mitchellh/copystructure"
)

// PayloadType tags the variant of an outbound Payload.
type PayloadType string

const (
	PayloadText         PayloadType = "text"
	PayloadImage        PayloadType = "image"
	PayloadCard         PayloadType = "card"
	PayloadCarousel     PayloadType = "carousel"
	PayloadSingleChoice PayloadType = "single-choice"
	PayloadDropdown     PayloadType = "dropdown"
)

// ActionKind tags a card button.
type ActionKind string

const (
	ActionPostback ActionKind = "postback"
	ActionURL      ActionKind = "url"
	ActionSay      ActionKind = "say"
)

// Payload is the canonical, platform-neutral outbound content.
type Payload struct {
	Type        PayloadType  `json:"type"`
	Text        string       `json:"text,omitempty"`
	Markdown    bool         `json:"markdown,omitempty"`
	Image       string       `json:"image,omitempty"`
	Title       string       `json:"title,omitempty"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Items       []Card       `json:"items,omitempty"`
	Actions     []CardAction `json:"actions,omitempty"`
	Choices     []Choice     `json:"choices,omitempty"`
	Options     []Choice     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Typing      bool         `json:"typing,omitempty"`
	// Delay is the typing pause in milliseconds; 0 means the channel default.
	Delay int `json:"delay,omitempty"`
	// CollectFeedback asks channels that support it to attach a rating prompt
	// bound to EventID.
	CollectFeedback bool           `json:"collect_feedback,omitempty"`
	EventID         string         `json:"event_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Card is one element of a carousel.
type Card struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Image    string       `json:"image,omitempty"`
	Actions  []CardAction `json:"actions,omitempty"`
}

// CardAction is a button on a card.
type CardAction struct {
	Kind    ActionKind `json:"action"`
	Title   string     `json:"title"`
	Payload string     `json:"payload,omitempty"`
	URL     string     `json:"url,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// Value returns what a postback or say button reports back when pressed.
func (a CardAction) Value() string {
	if a.Kind == ActionSay {
		return a.Text
	}
	return a.Payload
}

// Choice is a selectable option with a display title and a reported value.
type Choice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Clone returns a deep copy of p. Renderers may mutate the copy freely.
func (p Payload) Clone() (Payload, error) {
	copied, err := copystructure.Copy(p)
	if err != nil {
		return Payload{}, fmt.Errorf("copy payload: %w", err)
	}
	return copied.(Payload), nil
}

// Validate checks that the payload carries what its type requires.
func (p Payload) Validate() error {
	switch p.Type {
	case PayloadText:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("text payload requires text")
		}
	case PayloadImage:
		if strings.TrimSpace(p.Image) == "" {
			return fmt.Errorf("image payload requires image")
		}
	case PayloadCard:
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("card payload requires title")
		}
	case PayloadCarousel:
		if len(p.Items) == 0 {
			return fmt.Errorf("carousel payload requires items")
		}
	case PayloadSingleChoice:
		if len(p.Choices) == 0 {
			return fmt.Errorf("single-choice payload requires choices")
		}
	case PayloadDropdown:
		if len(p.Options) == 0 {
			return fmt.Errorf("dropdown payload requires options")
		}
	case "":
		if !p.Typing {
			return fmt.Errorf("payload type is required")
		}
	default:
		return fmt.Errorf("unsupported payload type: %s", p.Type)
	}
	return nil
}

// InboundType tags the variant of an InboundPayload.
type InboundType string

const (
	InboundText       InboundType = "text"
	InboundQuickReply InboundType = "quick_reply"
	InboundFile       InboundType = "file"
)

// InboundPayload is the canonical content of a received message.
type InboundPayload struct {
	Type    InboundType `json:"type"`
	Text    string      `json:"text"`
	Payload string      `json:"payload,omitempty"`
}

// QuickReply builds the inbound payload reported for a pressed button or a
// selected option.
func QuickReply(label, value string) InboundPayload {
	return InboundPayload{Type: InboundQuickReply, Text: label, Payload: value}
}
