package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
)

// DecodeUpdate decodes a webhook request body.
func DecodeUpdate(body []byte) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("%w: %w", channel.ErrMalformedEvent, err)
	}
	return update, nil
}

// NormalizeMessage turns a message into an inbound payload. It reports false
// for messages sent by bots.
func NormalizeMessage(msg *tgbotapi.Message) (channel.InboundPayload, bool) {
	if msg == nil {
		return channel.InboundPayload{}, false
	}
	if msg.From != nil && msg.From.IsBot {
		return channel.InboundPayload{}, false
	}
	if text := strings.TrimSpace(msg.Text); text != "" {
		return channel.InboundPayload{Type: channel.InboundText, Text: text}, true
	}
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		return channel.InboundPayload{Type: channel.InboundText, Text: caption}, true
	}
	if msg.Document != nil {
		if name := strings.TrimSpace(msg.Document.FileName); name != "" {
			return channel.InboundPayload{Type: channel.InboundFile, Text: name}, true
		}
	}
	return channel.InboundPayload{Type: channel.InboundText, Text: "N/A"}, true
}

// MessageRefs returns the chat and sender of msg.
func MessageRefs(msg *tgbotapi.Message) channel.Refs {
	var refs channel.Refs
	if msg == nil {
		return refs
	}
	if msg.Chat != nil {
		refs.Channel = channel.IntRef(msg.Chat.ID)
	}
	if msg.From != nil {
		refs.User = channel.IntRef(msg.From.ID)
	}
	return refs
}

// CallbackRefs returns the chat of the message a callback query came from
// and the user who pressed the button.
func CallbackRefs(cq *tgbotapi.CallbackQuery) channel.Refs {
	var refs channel.Refs
	if cq == nil {
		return refs
	}
	if cq.Message != nil && cq.Message.Chat != nil {
		refs.Channel = channel.IntRef(cq.Message.Chat.ID)
	}
	if cq.From != nil {
		refs.User = channel.IntRef(cq.From.ID)
	}
	return refs
}

// callbackValue returns the value part of "<action>|<value>". Data without a
// separator is all value.
func callbackValue(data string) string {
	if _, value, ok := strings.Cut(data, callbackSeparator); ok {
		return value
	}
	return data
}

// buttonLabel finds the text of the button that carried data.
func buttonLabel(msg *tgbotapi.Message, data string) (string, bool) {
	if msg == nil || msg.ReplyMarkup == nil {
		return "", false
	}
	for _, row := range msg.ReplyMarkup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil && *button.CallbackData == data {
				return button.Text, true
			}
		}
	}
	return "", false
}
