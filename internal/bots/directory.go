package bots

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/config"
)

// Directory serves the bots declared in configuration. It implements
// channel.ConfigResolver.
type Directory struct {
	logger *slog.Logger
	bots   map[string]config.BotConfig
	order  []string

	mu       sync.RWMutex
	checkers []RuntimeChecker
}

// NewDirectory indexes the configured bots by id.
func NewDirectory(log *slog.Logger, items []config.BotConfig) *Directory {
	if log == nil {
		log = slog.Default()
	}
	d := &Directory{
		logger: log.With(slog.String("service", "bots")),
		bots:   make(map[string]config.BotConfig, len(items)),
	}
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		if _, ok := d.bots[id]; !ok {
			d.order = append(d.order, id)
		}
		d.bots[id] = item
	}
	return d
}

// AddRuntimeChecker registers a checker consulted by ListChecks.
func (d *Directory) AddRuntimeChecker(c RuntimeChecker) {
	if c == nil {
		return
	}
	d.mu.Lock()
	d.checkers = append(d.checkers, c)
	d.mu.Unlock()
}

// Get returns the bot with the given id.
func (d *Directory) Get(_ context.Context, botID string) (Bot, error) {
	item, ok := d.bots[strings.TrimSpace(botID)]
	if !ok {
		return Bot{}, fmt.Errorf("%w: %s", ErrBotNotFound, botID)
	}
	return toBot(item), nil
}

// List returns every bot in declaration order.
func (d *Directory) List(_ context.Context) []Bot {
	items := make([]Bot, 0, len(d.order))
	for _, id := range d.order {
		items = append(items, toBot(d.bots[id]))
	}
	return items
}

// ResolveConfig returns the channel configuration of botID. A disabled bot
// reports every channel as disabled.
func (d *Directory) ResolveConfig(_ context.Context, botID string, channelType channel.ChannelType) (channel.ChannelConfig, error) {
	item, ok := d.bots[strings.TrimSpace(botID)]
	if !ok {
		return channel.ChannelConfig{}, fmt.Errorf("%w: %w: %s", channel.ErrResolution, ErrBotNotFound, botID)
	}
	cfg, ok := channelConfig(item, channelType)
	if !ok {
		return channel.ChannelConfig{}, fmt.Errorf("%w: bot %s has no %s channel", channel.ErrResolution, botID, channelType)
	}
	return cfg, nil
}

// ListConfigsByType returns the configuration of every bot that has
// channelType.
func (d *Directory) ListConfigsByType(_ context.Context, channelType channel.ChannelType) ([]channel.ChannelConfig, error) {
	items := make([]channel.ChannelConfig, 0)
	for _, id := range d.order {
		if cfg, ok := channelConfig(d.bots[id], channelType); ok {
			items = append(items, cfg)
		}
	}
	return items, nil
}

// ListChecks evaluates the static and runtime checks of a bot.
func (d *Directory) ListChecks(ctx context.Context, botID string) ([]BotCheck, error) {
	item, ok := d.bots[strings.TrimSpace(botID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBotNotFound, botID)
	}
	enabled := BotCheck{
		ID:       BotCheckTypeEnabled,
		Type:     BotCheckTypeEnabled,
		TitleKey: "bots.checks.titles.enabled",
		Status:   BotCheckStatusOK,
		Summary:  "Bot is enabled.",
	}
	if item.Disabled {
		enabled.Status = BotCheckStatusWarn
		enabled.Summary = "Bot is disabled."
	}
	return d.appendDynamicChecks(ctx, item.ID, []BotCheck{enabled}), nil
}

// appendDynamicChecks appends checks from registered runtime checkers.
func (d *Directory) appendDynamicChecks(ctx context.Context, botID string, checks []BotCheck) []BotCheck {
	d.mu.RLock()
	checkers := slices.Clone(d.checkers)
	d.mu.RUnlock()
	for _, checker := range checkers {
		for _, item := range checker.ListChecks(ctx, botID) {
			item.ID = strings.TrimSpace(item.ID)
			item.Type = strings.TrimSpace(item.Type)
			item.Status = strings.TrimSpace(item.Status)
			if item.ID == "" {
				if item.Type != "" {
					item.ID = item.Type
				} else {
					item.ID = "runtime.unknown"
					d.logger.Warn("runtime checker returned check without id and type",
						slog.String("bot_id", botID))
				}
			}
			if item.Type == "" {
				item.Type = item.ID
			}
			if item.Status == "" {
				item.Status = BotCheckStatusUnknown
			}
			checks = append(checks, item)
		}
	}
	return checks
}

// SummarizeChecks folds check rows into an overall state and issue count.
func SummarizeChecks(checks []BotCheck) (string, int32) {
	if len(checks) == 0 {
		return BotCheckStateUnknown, 0
	}
	var issueCount int32
	unknownCount := 0
	for _, check := range checks {
		switch check.Status {
		case BotCheckStatusWarn, BotCheckStatusError:
			issueCount++
		case BotCheckStatusUnknown:
			unknownCount++
		}
	}
	if issueCount > 0 {
		return BotCheckStateIssue, issueCount
	}
	if unknownCount == len(checks) {
		return BotCheckStateUnknown, 0
	}
	return BotCheckStateOK, 0
}

func channelConfig(item config.BotConfig, channelType channel.ChannelType) (channel.ChannelConfig, bool) {
	raw, ok := item.Channels[channelType.String()]
	if !ok {
		return channel.ChannelConfig{}, false
	}
	disabled := item.Disabled
	if v, ok := raw["disabled"].(bool); ok && v {
		disabled = true
	}
	return channel.ChannelConfig{
		BotID:       item.ID,
		ChannelType: channelType,
		Credentials: maps.Clone(raw),
		Disabled:    disabled,
	}, true
}

func toBot(item config.BotConfig) Bot {
	channels := slices.Sorted(maps.Keys(item.Channels))
	return Bot{
		ID:          item.ID,
		DisplayName: item.DisplayName,
		Disabled:    item.Disabled,
		Channels:    channels,
	}
}
