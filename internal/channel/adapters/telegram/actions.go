package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
)

// CallbackRouter maps callback queries to inbound payloads and the message
// edits that go with them.
type CallbackRouter struct {
	logger *slog.Logger
}

// NewCallbackRouter creates a CallbackRouter.
func NewCallbackRouter(log *slog.Logger) *CallbackRouter {
	if log == nil {
		log = slog.Default()
	}
	return &CallbackRouter{logger: log.With(slog.String("component", "telegram_callbacks"))}
}

// Route answers cq, applies the message edit its action asks for and reports
// the quick reply to receive. It reports false when the action produces no
// inbound message.
func (r *CallbackRouter) Route(ctx context.Context, botID string, bot BotAPI, cq *tgbotapi.CallbackQuery) (channel.InboundPayload, bool) {
	if cq == nil {
		return channel.InboundPayload{}, false
	}
	log := r.logger.With(slog.String("bot_id", botID), slog.String("callback_id", cq.ID))
	if _, err := bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Warn("answer callback query failed", slog.Any("error", err))
	}
	if ctx.Err() != nil {
		return channel.InboundPayload{}, false
	}

	// The action tag is matched on the raw data so that data without a
	// separator is still classified.
	data := cq.Data
	value := callbackValue(data)
	label, ok := buttonLabel(cq.Message, data)
	if !ok {
		label = value
	}
	switch {
	case strings.HasPrefix(data, actionDiscard):
		return channel.InboundPayload{}, false
	case strings.HasPrefix(data, actionRemoveButtons):
		r.edit(log, bot, cq.Message, func(chatID int64, messageID int) tgbotapi.Chattable {
			return tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
			})
		})
	case strings.HasPrefix(data, actionReplaceButtons):
		r.edit(log, bot, cq.Message, func(chatID int64, messageID int) tgbotapi.Chattable {
			return tgbotapi.NewEditMessageText(chatID, messageID, label)
		})
	}
	return channel.QuickReply(label, value), true
}

// edit failures are logged: the user's choice is still delivered.
func (r *CallbackRouter) edit(log *slog.Logger, bot BotAPI, msg *tgbotapi.Message, build func(chatID int64, messageID int) tgbotapi.Chattable) {
	if msg == nil || msg.Chat == nil {
		log.Warn("callback without message")
		return
	}
	if _, err := bot.Request(build(msg.Chat.ID, msg.MessageID)); err != nil {
		log.Warn("update interactive message failed", slog.Any("error", err))
	}
}
