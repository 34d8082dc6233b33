package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/chatbridge/internal/bots"
	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/channel/adapters/slack"
	"github.com/memohai/chatbridge/internal/channel/adapters/telegram"
	"github.com/memohai/chatbridge/internal/config"
	"github.com/memohai/chatbridge/internal/conversation"
	"github.com/memohai/chatbridge/internal/db"
	"github.com/memohai/chatbridge/internal/handlers"
	"github.com/memohai/chatbridge/internal/healthcheck"
	channelchecker "github.com/memohai/chatbridge/internal/healthcheck/checkers/channel"
	"github.com/memohai/chatbridge/internal/logger"
	"github.com/memohai/chatbridge/internal/message"
	"github.com/memohai/chatbridge/internal/server"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the channel webhooks and the management API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app := fx.New(
				fx.Supply(cfg),
				fx.Provide(
					provideLogger,
					provideStores,
					conversation.NewScopes,
					message.NewScopes,
					message.NewFeedbackUpdater,
					provideDirectory,
					provideSlackChannel,
					provideTelegramChannel,
					provideRegistry,
					provideServerHandler(provideSlackWebhookHandler),
					provideServerHandler(provideTelegramWebhookHandler),
					provideServerHandler(handlers.NewHealthHandler),
					provideServerHandler(handlers.NewChannelHandler),
					provideServerHandler(handlers.NewBotsHandler),
					provideServer,
				),
				fx.Invoke(
					configureTelegramLogger,
					registerRuntimeCheckers,
					startChannels,
					startServer,
				),
				fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
					return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

type storeResult struct {
	fx.Out
	Conversations conversation.Store
	Messages      message.Store
}

// provideStores picks the backend named by storage.driver. The Postgres pool
// is closed on shutdown.
func provideStores(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (storeResult, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage; conversations are lost on restart")
		return storeResult{
			Conversations: conversation.NewMemoryStore(),
			Messages:      message.NewMemoryStore(),
		}, nil
	}
	pool, err := openPool(lc, cfg)
	if err != nil {
		return storeResult{}, err
	}
	return storeResult{
		Conversations: conversation.NewPostgresStore(log, pool),
		Messages:      message.NewPostgresStore(log, pool),
	}, nil
}

func openPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideDirectory(log *slog.Logger, cfg config.Config) *bots.Directory {
	return bots.NewDirectory(log, cfg.Bots)
}

func provideSlackChannel(log *slog.Logger, cfg config.Config, directory *bots.Directory, conversations *conversation.Scopes, messages *message.Scopes, feedback *message.FeedbackUpdater) (*slack.Channel, error) {
	window, err := time.ParseDuration(cfg.Slack.DedupWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: slack.dedup_window: %w", config.ErrInvalid, err)
	}
	return slack.NewChannel(log, slack.Options{
		Configs:       directory,
		Conversations: conversations,
		Messages:      messages,
		Feedback:      feedback,
		TypingDelay:   time.Duration(cfg.Slack.TypingDelayMs) * time.Millisecond,
		DedupWindow:   window,
		APIURL:        cfg.Slack.APIURL,
	}), nil
}

func provideTelegramChannel(log *slog.Logger, cfg config.Config, directory *bots.Directory, conversations *conversation.Scopes, messages *message.Scopes) *telegram.Channel {
	return telegram.NewChannel(log, telegram.Options{
		Configs:        directory,
		Conversations:  conversations,
		Messages:       messages,
		TypingDelay:    time.Duration(cfg.Telegram.TypingDelayMs) * time.Millisecond,
		APIEndpoint:    cfg.Telegram.APIEndpoint,
		WebhookBaseURL: cfg.Telegram.WebhookBaseURL,
	})
}

func provideRegistry(slackChannel *slack.Channel, telegramChannel *telegram.Channel) *channel.Registry {
	registry := channel.NewRegistry()
	registry.MustRegister(slackChannel)
	registry.MustRegister(telegramChannel)
	return registry
}

func provideSlackWebhookHandler(log *slog.Logger, ch *slack.Channel) *slack.WebhookHandler {
	return slack.NewWebhookHandler(log, ch)
}

func provideTelegramWebhookHandler(log *slog.Logger, ch *telegram.Channel) *telegram.WebhookHandler {
	return telegram.NewWebhookHandler(log, ch)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func registerRuntimeCheckers(log *slog.Logger, directory *bots.Directory, registry *channel.Registry) {
	directory.AddRuntimeChecker(healthcheck.NewRuntimeCheckerAdapter(channelchecker.NewChecker(log, registry, directory)))
}

func configureTelegramLogger(log *slog.Logger) error {
	if err := telegram.UseSlogLogger(log); err != nil {
		return fmt.Errorf("telegram logger: %w", err)
	}
	return nil
}

// startChannels sets up every registered channel before the server accepts
// traffic.
func startChannels(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, registry *channel.Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return setupChannels(ctx, log, registry, cfg.Server.StrictChannels)
		},
	})
}

// setupChannels runs Setup on each channel. A channel that fails stays
// unconfigured and its webhooks answer 503 while the others keep serving.
// In strict mode the first failure is returned instead.
func setupChannels(ctx context.Context, log *slog.Logger, registry *channel.Registry, strict bool) error {
	for _, ch := range registry.List() {
		err := ch.Setup(ctx)
		if err == nil {
			continue
		}
		if strict {
			return fmt.Errorf("setup %s channel: %w", ch.Type(), err)
		}
		log.Error("channel setup failed",
			slog.String("channel", ch.Type().String()),
			slog.Any("error", err),
		)
	}
	return nil
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
