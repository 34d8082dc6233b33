// Package bots is the tenant directory: the bots declared in configuration,
// their per-channel credentials and their runtime checks.
package bots

import (
	"context"
	"errors"
)

// ErrBotNotFound is returned when no bot has the requested id.
var ErrBotNotFound = errors.New("bot not found")

// Bot represents one tenant.
type Bot struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Disabled        bool     `json:"disabled"`
	Channels        []string `json:"channels"`
	CheckState      string   `json:"check_state,omitempty"`
	CheckIssueCount int32    `json:"check_issue_count,omitempty"`
}

// BotCheck represents one runtime check row for a bot.
type BotCheck struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	TitleKey string         `json:"title_key"`
	Subtitle string         `json:"subtitle,omitempty"`
	Status   string         `json:"status"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ListBotsResponse wraps a list of bots.
type ListBotsResponse struct {
	Items []Bot `json:"items"`
}

// ListChecksResponse wraps a list of bot checks.
type ListChecksResponse struct {
	State      string     `json:"state"`
	IssueCount int32      `json:"issue_count"`
	Items      []BotCheck `json:"items"`
}

// RuntimeChecker produces runtime check items for a bot.
type RuntimeChecker interface {
	// ListChecks evaluates dynamic runtime checks for a bot.
	ListChecks(ctx context.Context, botID string) []BotCheck
}

const (
	BotCheckStateOK      = "ok"
	BotCheckStateIssue   = "issue"
	BotCheckStateUnknown = "unknown"
)

const (
	BotCheckStatusOK      = "ok"
	BotCheckStatusWarn    = "warn"
	BotCheckStatusError   = "error"
	BotCheckStatusUnknown = "unknown"
)

const (
	BotCheckTypeEnabled     = "bot.enabled"
	BotCheckTypeChannelConn = "channel.connection"
)
