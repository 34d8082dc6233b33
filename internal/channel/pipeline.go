package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/memohai/chatbridge/internal/conversation"
	"github.com/memohai/chatbridge/internal/message"
)

// State is the lifecycle state of a channel pipeline.
type State int32

const (
	StateUnconfigured State = iota
	StateConnecting
	StateListening
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ConversationResolver returns the conversation store scope of a tenant.
// *conversation.Scopes satisfies it.
type ConversationResolver interface {
	ForTenant(ctx context.Context, tenantID string) (conversation.Scope, error)
}

// MessageResolver returns the message store scope of a tenant.
// *message.Scopes satisfies it.
type MessageResolver interface {
	ForTenant(ctx context.Context, tenantID string) (message.Scope, error)
}

// ClientResolver returns the platform client bundle of a tenant.
// *tenant.Cache[C] satisfies it.
type ClientResolver[C any] interface {
	ForTenant(ctx context.Context, tenantID string) (C, error)
}

// PipelineConfig declares a channel pipeline. Renderers and senders run in
// the order given.
type PipelineConfig[F, C any] struct {
	Type          ChannelType
	Renderers     []Renderer[F, C]
	Senders       []Sender[F, C]
	Conversations ConversationResolver
	Messages      MessageResolver
	Clients       ClientResolver[C]
}

// Pipeline orchestrates one channel: outbound payloads go through the
// renderer then sender chains, inbound payloads are attached to the tenant's
// most recent conversation and stored. Adapters embed a Pipeline and add
// their platform listeners.
type Pipeline[F, C any] struct {
	channelType   ChannelType
	logger        *slog.Logger
	renderers     []Renderer[F, C]
	senders       []Sender[F, C]
	conversations ConversationResolver
	messages      MessageResolver
	clients       ClientResolver[C]
	state         atomic.Int32
}

// NewPipeline creates a Pipeline in StateUnconfigured.
func NewPipeline[F, C any](log *slog.Logger, cfg PipelineConfig[F, C]) *Pipeline[F, C] {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline[F, C]{
		channelType:   cfg.Type,
		logger:        log.With(slog.String("channel", cfg.Type.String())),
		renderers:     append([]Renderer[F, C](nil), cfg.Renderers...),
		senders:       append([]Sender[F, C](nil), cfg.Senders...),
		conversations: cfg.Conversations,
		messages:      cfg.Messages,
		clients:       cfg.Clients,
	}
}

// Type returns the channel type.
func (p *Pipeline[F, C]) Type() ChannelType {
	return p.channelType
}

// State returns the current lifecycle state.
func (p *Pipeline[F, C]) State() State {
	return State(p.state.Load())
}

// RendererNames lists the renderer chain in order.
func (p *Pipeline[F, C]) RendererNames() []string {
	names := make([]string, 0, len(p.renderers))
	for _, r := range p.renderers {
		names = append(names, r.Name())
	}
	return names
}

// SenderNames lists the sender chain in order.
func (p *Pipeline[F, C]) SenderNames() []string {
	names := make([]string, 0, len(p.senders))
	for _, s := range p.senders {
		names = append(names, s.Name())
	}
	return names
}

// Connect runs the adapter setup once and moves the pipeline to
// StateListening. A failed setup returns the pipeline to StateUnconfigured
// and reports ErrConfiguration.
func (p *Pipeline[F, C]) Connect(ctx context.Context, setup func(ctx context.Context) error) error {
	if !p.state.CompareAndSwap(int32(StateUnconfigured), int32(StateConnecting)) {
		return fmt.Errorf("%w: %s", ErrAlreadySetup, p.channelType)
	}
	if p.conversations == nil || p.messages == nil || p.clients == nil {
		p.state.Store(int32(StateUnconfigured))
		return fmt.Errorf("%w: %s: stores and clients are required", ErrConfiguration, p.channelType)
	}
	if setup != nil {
		if err := setup(ctx); err != nil {
			p.state.Store(int32(StateUnconfigured))
			if errors.Is(err, ErrConfiguration) {
				return err
			}
			return fmt.Errorf("%w: %s: %w", ErrConfiguration, p.channelType, err)
		}
	}
	p.state.Store(int32(StateListening))
	p.logger.Info("channel listening",
		slog.Any("renderers", p.RendererNames()),
		slog.Any("senders", p.SenderNames()),
	)
	return nil
}

// Send renders payload for the tenant's conversation and delivers it. The
// caller's payload is never modified.
func (p *Pipeline[F, C]) Send(ctx context.Context, tenantID, conversationID string, payload Payload) error {
	if p.State() != StateListening {
		return fmt.Errorf("%w: %s", ErrNotListening, p.channelType)
	}
	rc, err := p.newRenderContext(ctx, tenantID, conversationID, payload)
	if err != nil {
		return err
	}
	if err := render(ctx, p.renderers, rc); err != nil {
		return err
	}
	if err := deliver(ctx, p.senders, rc); err != nil {
		p.logger.Warn("send failed",
			slog.String("bot_id", rc.TenantID),
			slog.String("conversation_id", rc.ConversationID),
			slog.Any("error", err),
		)
		return err
	}
	p.logger.Debug("payload sent",
		slog.String("bot_id", rc.TenantID),
		slog.String("conversation_id", rc.ConversationID),
		slog.Any("renderers", rc.Markers),
		slog.Int("fragments", len(rc.Fragments)),
	)
	return nil
}

func (p *Pipeline[F, C]) newRenderContext(ctx context.Context, tenantID, conversationID string, payload Payload) (*RenderContext[F, C], error) {
	tenantID = strings.TrimSpace(tenantID)
	conversationID = strings.TrimSpace(conversationID)
	convs, err := p.conversations.ForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant %q: %w", ErrResolution, tenantID, err)
	}
	conv, err := convs.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return nil, fmt.Errorf("%w: conversation %q: %w", ErrResolution, conversationID, err)
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv.Channel != p.channelType.String() {
		return nil, fmt.Errorf("%w: conversation %q belongs to channel %s", ErrResolution, conversationID, conv.Channel)
	}
	clients, err := p.clients.ForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrResolution) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDelivery) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: clients for %q: %w", ErrConfiguration, tenantID, err)
	}
	copied, err := payload.Clone()
	if err != nil {
		return nil, err
	}
	return &RenderContext[F, C]{
		TenantID:       tenantID,
		ConversationID: conv.ID,
		Thread:         conv.Thread,
		UserRef:        conv.UserRef,
		Payload:        copied,
		Clients:        clients,
	}, nil
}

// Receive stores an inbound payload on the tenant's most recent conversation
// for the event's channel and user, creating the conversation when needed.
// Every call creates a message; deduplication happens upstream.
func (p *Pipeline[F, C]) Receive(ctx context.Context, tenantID string, refs Refs, payload InboundPayload) (message.Message, error) {
	if p.State() != StateListening {
		return message.Message{}, fmt.Errorf("%w: %s", ErrNotListening, p.channelType)
	}
	thread := strings.TrimSpace(refs.Channel.String())
	if thread == "" {
		return message.Message{}, fmt.Errorf("%w: inbound event has no channel", ErrResolution)
	}
	userRef := strings.TrimSpace(refs.User.String())
	tenantID = strings.TrimSpace(tenantID)

	convs, err := p.conversations.ForTenant(ctx, tenantID)
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: tenant %q: %w", ErrResolution, tenantID, err)
	}
	conv, err := convs.Recent(ctx, conversation.Key{
		Channel: p.channelType.String(),
		Thread:  thread,
		UserRef: userRef,
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("resolve conversation: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return message.Message{}, fmt.Errorf("encode inbound payload: %w", err)
	}
	msgs, err := p.messages.ForTenant(ctx, tenantID)
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: tenant %q: %w", ErrResolution, tenantID, err)
	}
	msg, err := msgs.Create(ctx, message.CreateInput{
		ConversationID: conv.ID,
		AuthorRef:      userRef,
		Payload:        body,
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("store inbound message: %w", err)
	}
	p.logger.Debug("inbound stored",
		slog.String("bot_id", tenantID),
		slog.String("conversation_id", conv.ID),
		slog.String("message_id", msg.ID),
		slog.String("type", string(payload.Type)),
	)
	return msg, nil
}
