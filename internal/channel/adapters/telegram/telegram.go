// Package telegram implements the Telegram channel: Bot API renderers and
// senders, webhook updates and callback-query routing.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/tenant"
)

// Options configures a Channel.
type Options struct {
	Configs       channel.ConfigResolver
	Conversations channel.ConversationResolver
	Messages      channel.MessageResolver
	TypingDelay   time.Duration
	// APIEndpoint overrides tgbotapi.APIEndpoint; it keeps the %s/%s
	// placeholders for token and method.
	APIEndpoint string
	// WebhookBaseURL, when set, makes Setup register
	// <base>/channels/telegram/<bot_id>/webhook with every enabled bot.
	WebhookBaseURL string
	// NewBot overrides client construction.
	NewBot func(cfg Config) (BotAPI, error)
}

// Channel is the Telegram channel pipeline plus its inbound side.
type Channel struct {
	*channel.Pipeline[Fragment, Clients]

	logger         *slog.Logger
	configs        channel.ConfigResolver
	router         *CallbackRouter
	clients        *tenant.Cache[Clients]
	newBot         func(cfg Config) (BotAPI, error)
	webhookBaseURL string
}

// NewChannel creates the Telegram channel in StateUnconfigured.
func NewChannel(log *slog.Logger, opts Options) *Channel {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("adapter", Type.String()))
	c := &Channel{
		logger:         log,
		configs:        opts.Configs,
		router:         NewCallbackRouter(log),
		newBot:         opts.NewBot,
		webhookBaseURL: strings.TrimRight(strings.TrimSpace(opts.WebhookBaseURL), "/"),
	}
	if c.newBot == nil {
		endpoint := strings.TrimSpace(opts.APIEndpoint)
		c.newBot = func(cfg Config) (BotAPI, error) {
			if endpoint != "" {
				return tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
			}
			return tgbotapi.NewBotAPI(cfg.BotToken)
		}
	}
	c.clients = tenant.New[Clients](c.buildClients)
	c.Pipeline = channel.NewPipeline(log, channel.PipelineConfig[Fragment, Clients]{
		Type:          Type,
		Renderers:     defaultRenderers(),
		Senders:       defaultSenders(opts.TypingDelay),
		Conversations: opts.Conversations,
		Messages:      opts.Messages,
		Clients:       c.clients,
	})
	return c
}

// Descriptor returns the Telegram channel metadata.
func (c *Channel) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:        Type,
		DisplayName: "Telegram",
		Capabilities: channel.ChannelCapabilities{
			Text:     true,
			Markdown: true,
			Images:   true,
			Carousel: true,
			Choices:  true,
			Dropdown: true,
			Typing:   true,
		},
		Renderers: c.RendererNames(),
		Senders:   c.SenderNames(),
	}
}

// Setup validates the Telegram credentials of every enabled bot and, when a
// webhook base URL is configured, registers the webhook of each.
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
		for _, raw := range configs {
			if raw.Disabled {
				continue
			}
			cfg, err := parseConfig(raw.Credentials)
			if err != nil {
				return fmt.Errorf("bot %s: %w", raw.BotID, err)
			}
			if c.webhookBaseURL != "" {
				if err := c.registerWebhook(ctx, raw.BotID, cfg); err != nil {
					return fmt.Errorf("bot %s: %w", raw.BotID, err)
				}
			}
			enabled++
		}
		c.logger.Info("telegram bots configured", slog.Int("count", enabled))
		return nil
	})
}

// WebhookURL returns the public webhook address of botID.
func (c *Channel) WebhookURL(botID string) string {
	return c.webhookBaseURL + "/channels/telegram/" + url.PathEscape(botID) + "/webhook"
}

func (c *Channel) registerWebhook(ctx context.Context, botID string, cfg Config) error {
	clients, err := c.clients.ForTenant(ctx, botID)
	if err != nil {
		return err
	}
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", c.WebhookURL(botID))
	params.AddNonEmpty("secret_token", cfg.SecretToken)
	params.AddNonEmpty("allowed_updates", `["message","callback_query"]`)
	if _, err := clients.Bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	c.logger.Info("telegram webhook registered", slog.String("bot_id", botID))
	return nil
}

// resolveConfig returns the parsed credentials of botID.
func (c *Channel) resolveConfig(ctx context.Context, botID string) (Config, error) {
	raw, err := c.configs.ResolveConfig(ctx, botID, Type)
	if err != nil {
		return Config{}, err
	}
	if raw.Disabled {
		return Config{}, fmt.Errorf("%w: telegram is disabled for bot %s", channel.ErrResolution, botID)
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
	bot, err := c.newBot(cfg)
	if err != nil {
		c.logger.Error("create bot failed", slog.String("bot_id", botID), slog.Any("error", err))
		return Clients{}, fmt.Errorf("%w: create telegram bot %s: %w", channel.ErrDelivery, botID, err)
	}
	c.logger.Debug("telegram client created", slog.String("bot_id", botID))
	return Clients{Bot: bot}, nil
}

// UseSlogLogger routes the process-wide tgbotapi logger to log at debug level.
func UseSlogLogger(log *slog.Logger) error {
	if log == nil {
		return errors.New("logger is required")
	}
	return tgbotapi.SetLogger(&slogBotLogger{log: log.With(slog.String("adapter", Type.String()))})
}

// slogBotLogger routes tgbotapi debug output to slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *slogBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
