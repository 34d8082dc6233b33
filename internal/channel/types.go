// Package channel turns canonical outbound payloads into platform deliveries
// and platform events into canonical inbound messages. Each platform adapter
// embeds a Pipeline with its own renderer and sender chains.
package channel

import (
	"context"
	"fmt"
	"strings"
)

// ChannelType identifies a messaging platform (e.g., "slack", "telegram").
type ChannelType string

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

// ChannelConfig holds the configuration for a bot's channel integration.
type ChannelConfig struct {
	BotID       string         `json:"bot_id"`
	ChannelType ChannelType    `json:"channel_type"`
	Credentials map[string]any `json:"credentials"`
	Disabled    bool           `json:"disabled"`
}

// ConfigResolver looks up channel configurations of bots.
type ConfigResolver interface {
	// ResolveConfig returns the configuration of botID for channelType. A bot
	// without one yields an error wrapping ErrResolution.
	ResolveConfig(ctx context.Context, botID string, channelType ChannelType) (ChannelConfig, error)
	ListConfigsByType(ctx context.Context, channelType ChannelType) ([]ChannelConfig, error)
}

// ReadString returns the first non-empty value among keys, formatted as a
// string. It lets credentials use either camelCase or snake_case keys.
func ReadString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case fmt.Stringer:
			s = v.String()
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
