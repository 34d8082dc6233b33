package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
)

func TestDecodeUpdate(t *testing.T) {
	t.Parallel()

	update, err := DecodeUpdate([]byte(`{"update_id":5,"message":{"message_id":1,"date":0,"chat":{"id":-100,"type":"group"},"from":{"id":7,"is_bot":false,"first_name":"A"},"text":"hi"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.UpdateID != 5 || update.Message == nil {
		t.Fatalf("unexpected update: %+v", update)
	}
	refs := MessageRefs(update.Message)
	if refs.Channel != "-100" || refs.User != "7" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	if _, err := DecodeUpdate([]byte(`{"update_id":`)); !errors.Is(err, channel.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()

	user := &tgbotapi.User{ID: 7}
	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		wantOK   bool
		wantType channel.InboundType
		wantText string
	}{
		{name: "nil", msg: nil},
		{name: "bot", msg: &tgbotapi.Message{From: &tgbotapi.User{ID: 9, IsBot: true}, Text: "hi"}},
		{name: "text", msg: &tgbotapi.Message{From: user, Text: " hi "}, wantOK: true, wantType: channel.InboundText, wantText: "hi"},
		{name: "caption", msg: &tgbotapi.Message{From: user, Caption: "look"}, wantOK: true, wantType: channel.InboundText, wantText: "look"},
		{
			name:     "document",
			msg:      &tgbotapi.Message{From: user, Document: &tgbotapi.Document{FileName: "cv.pdf"}},
			wantOK:   true,
			wantType: channel.InboundFile,
			wantText: "cv.pdf",
		},
		{name: "sticker", msg: &tgbotapi.Message{From: user}, wantOK: true, wantType: channel.InboundText, wantText: "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeMessage(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (got.Type != tt.wantType || got.Text != tt.wantText) {
				t.Fatalf("unexpected payload: %+v", got)
			}
		})
	}
}

func TestCallbackValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data string
		want string
	}{
		{data: "replace_buttons0|yes", want: "yes"},
		{data: "remove_buttons|a|b", want: "a|b"},
		{data: "plain", want: "plain"},
		{data: "discard_action", want: "discard_action"},
	}
	for _, tt := range tests {
		if got := callbackValue(tt.data); got != tt.want {
			t.Fatalf("callbackValue(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
