// Package slack implements the Slack channel: Block Kit renderers, the
// chat.postMessage sender chain, Events API and interactivity webhooks.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/tenant"
)

// DefaultDedupWindow is how long Events API ids are remembered.
const DefaultDedupWindow = 10 * time.Minute

// Options configures a Channel.
type Options struct {
	Configs       channel.ConfigResolver
	Conversations channel.ConversationResolver
	Messages      channel.MessageResolver
	// Feedback is optional; without it rating clicks are dropped.
	Feedback FeedbackUpdater
	// Responder defaults to DefaultResponder.
	Responder   ResponseURLClient
	TypingDelay time.Duration
	DedupWindow time.Duration
	// APIURL overrides https://slack.com/api/.
	APIURL string
	// NewPoster overrides client construction.
	NewPoster func(cfg Config) MessagePoster
}

// Channel is the Slack channel pipeline plus its inbound side.
type Channel struct {
	*channel.Pipeline[Fragment, Clients]

	logger    *slog.Logger
	configs   channel.ConfigResolver
	router    *ActionRouter
	windows   *tenant.Cache[*eventWindow]
	newPoster func(cfg Config) MessagePoster
}

// NewChannel creates the Slack channel in StateUnconfigured.
func NewChannel(log *slog.Logger, opts Options) *Channel {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("adapter", Type.String()))
	dedup := opts.DedupWindow
	if dedup <= 0 {
		dedup = DefaultDedupWindow
	}
	c := &Channel{
		logger:  log,
		configs: opts.Configs,
		router:  NewActionRouter(log, opts.Responder, opts.Feedback),
		windows: tenant.New[*eventWindow](func(context.Context, string) (*eventWindow, error) {
			return newEventWindow(dedup), nil
		}),
		newPoster: opts.NewPoster,
	}
	if c.newPoster == nil {
		apiURL := opts.APIURL
		c.newPoster = func(cfg Config) MessagePoster {
			if apiURL != "" {
				return slack.New(cfg.BotToken, slack.OptionAPIURL(apiURL))
			}
			return slack.New(cfg.BotToken)
		}
	}
	c.Pipeline = channel.NewPipeline(log, channel.PipelineConfig[Fragment, Clients]{
		Type:          Type,
		Renderers:     defaultRenderers(),
		Senders:       defaultSenders(opts.TypingDelay),
		Conversations: opts.Conversations,
		Messages:      opts.Messages,
		Clients:       tenant.New[Clients](c.buildClients),
	})
	return c
}

// Descriptor returns the Slack channel metadata.
func (c *Channel) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:        Type,
		DisplayName: "Slack",
		Capabilities: channel.ChannelCapabilities{
			Text:     true,
			Markdown: true,
			Images:   true,
			Carousel: true,
			Choices:  true,
			Dropdown: true,
			Typing:   true,
			Feedback: true,
		},
		Renderers: c.RendererNames(),
		Senders:   c.SenderNames(),
	}
}

// Setup validates the Slack credentials of every enabled bot and starts
// accepting webhooks.
func (c *Channel) Setup(ctx context.Context) error {
	return c.Connect(ctx, func(ctx context.Context) error {
		if c.configs == nil {
			return fmt.Errorf("config resolver is required")
		}
		configs, err := c.configs.ListConfigsByType(ctx, Type)
		if err != nil {
			return err
		}
		enabled := 0
		for _, cfg := range configs {
			if cfg.Disabled {
				continue
			}
			if _, err := parseConfig(cfg.Credentials); err != nil {
				return fmt.Errorf("bot %s: %w", cfg.BotID, err)
			}
			enabled++
		}
		c.logger.Info("slack bots configured", slog.Int("count", enabled))
		return nil
	})
}

// resolveConfig returns the parsed credentials of botID.
func (c *Channel) resolveConfig(ctx context.Context, botID string) (Config, error) {
	raw, err := c.configs.ResolveConfig(ctx, botID, Type)
	if err != nil {
		return Config{}, err
	}
	if raw.Disabled {
		return Config{}, fmt.Errorf("%w: slack is disabled for bot %s", channel.ErrResolution, botID)
	}
	cfg, err := parseConfig(raw.Credentials)
	if err != nil {
		return Config{}, fmt.Errorf("%w: bot %s: %w", channel.ErrConfiguration, botID, err)
	}
	return cfg, nil
}

func (c *Channel) buildClients(ctx context.Context, botID string) (Clients, error) {
	cfg, err := c.resolveConfig(ctx, botID)
	if err != nil {
		return Clients{}, err
	}
	c.logger.Debug("slack client created", slog.String("bot_id", botID))
	return Clients{API: c.newPoster(cfg)}, nil
}

// claimEvent reports whether eventID is new for botID.
func (c *Channel) claimEvent(ctx context.Context, botID, eventID string) bool {
	window, err := c.windows.ForTenant(ctx, botID)
	if err != nil {
		return true
	}
	return window.Claim(eventID)
}

func (c *Channel) releaseEvent(botID, eventID string) {
	if window, ok := c.windows.Peek(botID); ok {
		window.Release(eventID)
	}
}
