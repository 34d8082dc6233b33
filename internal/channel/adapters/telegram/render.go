package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
)

const telegramMaxMessageLength = 4096

// Telegram rejects callback data longer than this.
const maxCallbackData = 64

// Callback data is "<action>|<value>".
const (
	actionReplaceButtons = "replace_buttons"
	actionRemoveButtons  = "remove_buttons"
	actionDiscard        = "discard_action"

	callbackSeparator = "|"
)

// Fragment is one Bot API call that produces a message.
type Fragment = tgbotapi.Chattable

// BotAPI is the part of the Bot API client used by the channel.
// *tgbotapi.BotAPI satisfies it.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Clients is the per-bot Telegram client bundle.
type Clients struct {
	Bot BotAPI
}

type renderContext = channel.RenderContext[Fragment, Clients]

func defaultRenderers() []channel.Renderer[Fragment, Clients] {
	return []channel.Renderer[Fragment, Clients]{
		channel.CardToCarousel[Fragment, Clients]{},
		textRenderer{},
		imageRenderer{},
		carouselRenderer{},
		choicesRenderer{},
		dropdownRenderer{},
	}
}

func chatID(rc *renderContext) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rc.Thread), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat id %q: %w", rc.Thread, err)
	}
	return id, nil
}

func parseMode(markdown bool) string {
	if markdown {
		return tgbotapi.ModeMarkdown
	}
	return ""
}

func callbackData(action, value string) (string, error) {
	data := action + callbackSeparator + value
	if len(data) > maxCallbackData {
		return "", fmt.Errorf("callback data for %q exceeds %d bytes", value, maxCallbackData)
	}
	return data, nil
}

type textRenderer struct{}

func (textRenderer) Name() string { return "text" }

func (textRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadText && strings.TrimSpace(rc.Payload.Text) != ""
}

func (textRenderer) Render(_ context.Context, rc *renderContext) error {
	id, err := chatID(rc)
	if err != nil {
		return err
	}
	for _, chunk := range channel.SplitText(rc.Payload.Text, telegramMaxMessageLength, rc.Payload.Markdown) {
		msg := tgbotapi.NewMessage(id, chunk)
		msg.ParseMode = parseMode(rc.Payload.Markdown)
		rc.AppendFragment(msg)
	}
	return nil
}

type imageRenderer struct{}

func (imageRenderer) Name() string { return "image" }

func (imageRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadImage
}

func (imageRenderer) Render(_ context.Context, rc *renderContext) error {
	url := strings.TrimSpace(rc.Payload.Image)
	if url == "" {
		return fmt.Errorf("image payload has no url")
	}
	id, err := chatID(rc)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FileURL(url))
	photo.Caption = rc.Payload.Title
	rc.AppendFragment(photo)
	return nil
}

type carouselRenderer struct{}

func (carouselRenderer) Name() string { return "carousel" }

func (carouselRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadCarousel && len(rc.Payload.Items) > 0
}

// Render sends one message per card; Telegram has no native carousel.
func (carouselRenderer) Render(_ context.Context, rc *renderContext) error {
	id, err := chatID(rc)
	if err != nil {
		return err
	}
	for i, card := range rc.Payload.Items {
		keyboard, err := cardKeyboard(i, card.Actions)
		if err != nil {
			return err
		}
		caption := "*" + card.Title + "*"
		if card.Subtitle != "" {
			caption += "\n" + card.Subtitle
		}
		if card.Image != "" {
			photo := tgbotapi.NewPhoto(id, tgbotapi.FileURL(card.Image))
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeMarkdown
			if keyboard != nil {
				photo.ReplyMarkup = *keyboard
			}
			rc.AppendFragment(photo)
			continue
		}
		msg := tgbotapi.NewMessage(id, caption)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}
		rc.AppendFragment(msg)
	}
	return nil
}

func cardKeyboard(card int, actions []channel.CardAction) (*tgbotapi.InlineKeyboardMarkup, error) {
	if len(actions) == 0 {
		return nil, nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for j, action := range actions {
		switch action.Kind {
		case channel.ActionURL:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(action.Title, action.URL)))
		case channel.ActionPostback, channel.ActionSay:
			data, err := callbackData(fmt.Sprintf("%s%d_%d", actionReplaceButtons, card, j), action.Value())
			if err != nil {
				return nil, err
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(action.Title, data)))
		default:
			return nil, fmt.Errorf("unsupported card action: %s", action.Kind)
		}
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard, nil
}

type choicesRenderer struct{}

func (choicesRenderer) Name() string { return "choices" }

func (choicesRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadSingleChoice && len(rc.Payload.Choices) > 0
}

func (choicesRenderer) Render(_ context.Context, rc *renderContext) error {
	return renderKeyboard(rc, rc.Payload.Choices, fallbackText(rc.Payload.Text, "Choose an option"), func(i int) string {
		return fmt.Sprintf("%s%d", actionReplaceButtons, i)
	})
}

type dropdownRenderer struct{}

func (dropdownRenderer) Name() string { return "dropdown" }

func (dropdownRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadDropdown && len(rc.Payload.Options) > 0
}

// Render shows the options as a vertical keyboard that disappears once one
// is picked.
func (dropdownRenderer) Render(_ context.Context, rc *renderContext) error {
	text := fallbackText(rc.Payload.Text, fallbackText(rc.Payload.Placeholder, "Select..."))
	return renderKeyboard(rc, rc.Payload.Options, text, func(int) string {
		return actionRemoveButtons
	})
}

func renderKeyboard(rc *renderContext, choices []channel.Choice, text string, action func(i int) string) error {
	id, err := chatID(rc)
	if err != nil {
		return err
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for i, choice := range choices {
		data, err := callbackData(action(i), choice.Value)
		if err != nil {
			return err
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(choice.Title, data)))
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = parseMode(rc.Payload.Markdown)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	rc.AppendFragment(msg)
	return nil
}

func fallbackText(text, fallback string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return fallback
}
