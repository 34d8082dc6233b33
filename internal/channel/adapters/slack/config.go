package slack

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/memohai/chatbridge/internal/channel"
)

// Type is the Slack channel type.
const Type channel.ChannelType = "slack"

// Config holds the Slack credentials of one bot.
type Config struct {
	BotToken      string `validate:"required,startswith=xox"`
	SigningSecret string `validate:"required"`
}

var validate = validator.New()

func parseConfig(raw map[string]any) (Config, error) {
	cfg := Config{
		BotToken:      channel.ReadString(raw, "botToken", "bot_token"),
		SigningSecret: channel.ReadString(raw, "signingSecret", "signing_secret"),
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("slack config: %w", err)
	}
	return cfg, nil
}
