package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/conversation"
	"github.com/memohai/chatbridge/internal/message"
)

const (
	testBotID       = "bot-1"
	testSecretToken = "s3cret"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConfigs struct {
	items map[string]channel.ChannelConfig
}

func (f fakeConfigs) ResolveConfig(_ context.Context, botID string, _ channel.ChannelType) (channel.ChannelConfig, error) {
	cfg, ok := f.items[botID]
	if !ok {
		return channel.ChannelConfig{}, fmt.Errorf("%w: bot %s", channel.ErrResolution, botID)
	}
	return cfg, nil
}

func (f fakeConfigs) ListConfigsByType(context.Context, channel.ChannelType) ([]channel.ChannelConfig, error) {
	items := make([]channel.ChannelConfig, 0, len(f.items))
	for _, cfg := range f.items {
		items = append(items, cfg)
	}
	return items, nil
}

func defaultConfigs() fakeConfigs {
	return fakeConfigs{items: map[string]channel.ChannelConfig{
		testBotID: {
			BotID:       testBotID,
			ChannelType: Type,
			Credentials: map[string]any{"bot_token": "123:ABC", "secret_token": testSecretToken},
		},
	}}
}

// eventLog records collaborator calls in order.
type eventLog struct {
	mu    sync.Mutex
	items []string
}

func (l *eventLog) add(item string) {
	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.items...)
}

type madeRequest struct {
	endpoint string
	params   tgbotapi.Params
}

type fakeBot struct {
	log *eventLog

	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	made     []madeRequest
	sendErr  error
}

func newFakeBot() *fakeBot {
	return &fakeBot{log: &eventLog{}}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.log.add("send")
	b.mu.Lock()
	b.sent = append(b.sent, c)
	n := len(b.sent)
	b.mu.Unlock()
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	return tgbotapi.Message{MessageID: n}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	switch c.(type) {
	case tgbotapi.CallbackConfig:
		b.log.add("answer")
	case tgbotapi.EditMessageReplyMarkupConfig:
		b.log.add("edit_markup")
	case tgbotapi.EditMessageTextConfig:
		b.log.add("edit_text")
	case tgbotapi.ChatActionConfig:
		b.log.add("typing")
	default:
		b.log.add(fmt.Sprintf("%T", c))
	}
	b.mu.Lock()
	b.requests = append(b.requests, c)
	b.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	b.log.add(endpoint)
	b.mu.Lock()
	b.made = append(b.made, madeRequest{endpoint: endpoint, params: params})
	b.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) sentMessages() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *fakeBot) sentRequests() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.requests...)
}

// loggingMessages wraps a message store and records every Create.
type loggingMessages struct {
	*message.MemoryStore
	log *eventLog
}

func (s loggingMessages) Create(ctx context.Context, botID string, input message.CreateInput) (message.Message, error) {
	s.log.add("receive")
	return s.MemoryStore.Create(ctx, botID, input)
}

type testEnv struct {
	channel       *Channel
	configs       fakeConfigs
	bot           *fakeBot
	conversations *conversation.MemoryStore
	messages      *message.MemoryStore
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		configs:       defaultConfigs(),
		bot:           newFakeBot(),
		conversations: conversation.NewMemoryStore(),
		messages:      message.NewMemoryStore(),
	}
	opts.Configs = env.configs
	opts.Conversations = conversation.NewScopes(env.conversations)
	opts.Messages = message.NewScopes(loggingMessages{MemoryStore: env.messages, log: env.bot.log})
	if opts.TypingDelay == 0 {
		opts.TypingDelay = time.Millisecond
	}
	opts.NewBot = func(Config) (BotAPI, error) { return env.bot, nil }
	env.channel = NewChannel(newTestLogger(), opts)
	if err := env.channel.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return env
}

func (e *testEnv) conversation(t *testing.T, chat, user string) conversation.Conversation {
	t.Helper()
	conv, err := e.conversations.Recent(context.Background(), testBotID, conversation.Key{
		Channel: Type.String(),
		Thread:  chat,
		UserRef: user,
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conv
}

func keyboardOf(t *testing.T, c tgbotapi.Chattable) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	var markup any
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		markup = m.ReplyMarkup
	case tgbotapi.PhotoConfig:
		markup = m.ReplyMarkup
	default:
		t.Fatalf("unexpected fragment %T", c)
	}
	keyboard, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", markup)
	}
	return keyboard
}
