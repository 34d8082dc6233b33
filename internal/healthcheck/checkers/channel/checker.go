package channelchecker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/healthcheck"
)

const (
	checkTypeChannelConnection = "channel.connection"
	titleKeyChannelConnection  = "bots.checks.titles.channelConnection"
)

// ChannelLister lists the registered channels. *channel.Registry satisfies it.
type ChannelLister interface {
	List() []channel.Channel
}

// Checker reports, for every registered channel a bot is configured on,
// whether that channel is listening.
type Checker struct {
	logger   *slog.Logger
	channels ChannelLister
	configs  channel.ConfigResolver
}

// NewChecker creates a channel health checker.
func NewChecker(log *slog.Logger, channels ChannelLister, configs channel.ConfigResolver) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:   log.With(slog.String("checker", "healthcheck_channel")),
		channels: channels,
		configs:  configs,
	}
}

// ListChecks evaluates channel states for a bot.
func (c *Checker) ListChecks(ctx context.Context, botID string) []healthcheck.CheckResult {
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return []healthcheck.CheckResult{}
	}
	if c.channels == nil || c.configs == nil {
		c.logger.Warn("channel healthcheck dependency is unavailable", slog.String("bot_id", botID))
		return []healthcheck.CheckResult{
			{
				ID:       checkTypeChannelConnection + ".service",
				Type:     checkTypeChannelConnection,
				TitleKey: titleKeyChannelConnection,
				Status:   healthcheck.StatusWarn,
				Summary:  "Channel checker service is not available.",
				Detail:   "channel registry or config resolver is nil",
			},
		}
	}

	checks := make([]healthcheck.CheckResult, 0)
	for _, ch := range c.channels.List() {
		channelType := ch.Type()
		cfg, err := c.configs.ResolveConfig(ctx, botID, channelType)
		if err != nil {
			if !errors.Is(err, channel.ErrResolution) {
				c.logger.Warn("resolve channel config failed",
					slog.String("bot_id", botID),
					slog.String("channel", channelType.String()),
					slog.Any("error", err),
				)
			}
			continue
		}
		checks = append(checks, buildCheck(channelType, ch.State(), cfg.Disabled))
	}
	return checks
}

func buildCheck(channelType channel.ChannelType, state channel.State, disabled bool) healthcheck.CheckResult {
	name := channelType.String()
	item := healthcheck.CheckResult{
		ID:       checkTypeChannelConnection + "." + name,
		Type:     checkTypeChannelConnection,
		TitleKey: titleKeyChannelConnection,
		Subtitle: name,
		Metadata: map[string]any{
			"channel_type": name,
			"state":        state.String(),
			"disabled":     disabled,
		},
	}
	switch {
	case disabled:
		item.Status = healthcheck.StatusWarn
		item.Summary = fmt.Sprintf("Channel %s is disabled for this bot.", name)
	case state == channel.StateListening:
		item.Status = healthcheck.StatusOK
		item.Summary = fmt.Sprintf("Channel %s is listening.", name)
	case state == channel.StateConnecting:
		item.Status = healthcheck.StatusUnknown
		item.Summary = fmt.Sprintf("Channel %s is starting.", name)
	default:
		item.Status = healthcheck.StatusError
		item.Summary = fmt.Sprintf("Channel %s is not set up.", name)
	}
	return item
}
