package telegram

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/memohai/chatbridge/internal/channel"
)

// Type is the Telegram channel type.
const Type channel.ChannelType = "telegram"

// Config holds the Telegram credentials of one bot.
type Config struct {
	BotToken string `validate:"required,contains=:"`
	// SecretToken, when set, must match X-Telegram-Bot-Api-Secret-Token on
	// every webhook request.
	SecretToken string `validate:"omitempty,max=256"`
}

var validate = validator.New()

func parseConfig(raw map[string]any) (Config, error) {
	cfg := Config{
		BotToken:    channel.ReadString(raw, "botToken", "bot_token"),
		SecretToken: channel.ReadString(raw, "secretToken", "secret_token"),
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("telegram config: %w", err)
	}
	return cfg, nil
}
