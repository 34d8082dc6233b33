package channel

import (
	"context"

	"github.com/memohai/chatbridge/internal/message"
)

// Channel is a registered platform channel.
type Channel interface {
	Type() ChannelType
	Descriptor() Descriptor
	State() State
	// Setup validates configuration, builds listeners and moves the channel
	// to StateListening. It runs once.
	Setup(ctx context.Context) error
	Send(ctx context.Context, tenantID, conversationID string, payload Payload) error
	Receive(ctx context.Context, tenantID string, refs Refs, payload InboundPayload) (message.Message, error)
}

// Descriptor is the static metadata of a channel.
type Descriptor struct {
	Type         ChannelType         `json:"type"`
	DisplayName  string              `json:"display_name"`
	Capabilities ChannelCapabilities `json:"capabilities"`
	Renderers    []string            `json:"renderers"`
	Senders      []string            `json:"senders"`
}

// ChannelCapabilities lists the payload features a channel can render.
type ChannelCapabilities struct {
	Text     bool `json:"text"`
	Markdown bool `json:"markdown"`
	Images   bool `json:"images"`
	Carousel bool `json:"carousel"`
	Choices  bool `json:"choices"`
	Dropdown bool `json:"dropdown"`
	Typing   bool `json:"typing"`
	Feedback bool `json:"feedback"`
}

// Supports reports whether the capability matrix covers payload type pt.
func (c ChannelCapabilities) Supports(pt PayloadType) bool {
	switch pt {
	case PayloadText:
		return c.Text
	case PayloadImage:
		return c.Images
	case PayloadCard, PayloadCarousel:
		return c.Carousel
	case PayloadSingleChoice:
		return c.Choices
	case PayloadDropdown:
		return c.Dropdown
	case "":
		return c.Typing
	default:
		return false
	}
}
