package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/conversation"
	"github.com/memohai/chatbridge/internal/message"
)

const (
	testBotID         = "bot-1"
	testSigningSecret = "signing-secret"
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
			Credentials: map[string]any{"bot_token": "xoxb-test", "signing_secret": testSigningSecret},
		},
	}}
}

// eventLog records collaborator calls in order.
type eventLog struct {
	mu         sync.Mutex
	items      []string
	failCreate bool
}

func (l *eventLog) setFailCreate(fail bool) {
	l.mu.Lock()
	l.failCreate = fail
	l.mu.Unlock()
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

type postedMessage struct {
	channel string
	values  url.Values
}

type recordingPoster struct {
	mu    sync.Mutex
	calls []postedMessage
	err   error
}

func (p *recordingPoster) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("xoxb-test", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}
	p.mu.Lock()
	p.calls = append(p.calls, postedMessage{channel: channelID, values: values})
	p.mu.Unlock()
	if p.err != nil {
		return "", "", p.err
	}
	return channelID, strconv.FormatInt(time.Now().UnixNano(), 10), nil
}

func (p *recordingPoster) posted() []postedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]postedMessage(nil), p.calls...)
}

type recordingResponder struct {
	log  *eventLog
	mu   sync.Mutex
	msgs []*slack.WebhookMessage
	urls []string
}

func (r *recordingResponder) Respond(_ context.Context, responseURL string, msg *slack.WebhookMessage) error {
	r.log.add("mutate")
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.urls = append(r.urls, responseURL)
	r.mu.Unlock()
	return nil
}

// loggingMessages wraps a message store and records every Create.
type loggingMessages struct {
	*message.MemoryStore
	log *eventLog
}

func (s loggingMessages) Create(ctx context.Context, botID string, input message.CreateInput) (message.Message, error) {
	s.log.add("receive")
	s.log.mu.Lock()
	fail := s.log.failCreate
	s.log.mu.Unlock()
	if fail {
		return message.Message{}, errors.New("database unavailable")
	}
	return s.MemoryStore.Create(ctx, botID, input)
}

type testEnv struct {
	channel       *Channel
	configs       fakeConfigs
	poster        *recordingPoster
	responder     *recordingResponder
	log           *eventLog
	conversations *conversation.MemoryStore
	messages      *message.MemoryStore
}

func newTestEnv(t *testing.T, feedback FeedbackUpdater) *testEnv {
	t.Helper()
	log := &eventLog{}
	env := &testEnv{
		configs:       defaultConfigs(),
		poster:        &recordingPoster{},
		responder:     &recordingResponder{log: log},
		log:           log,
		conversations: conversation.NewMemoryStore(),
		messages:      message.NewMemoryStore(),
	}
	env.channel = NewChannel(newTestLogger(), Options{
		Configs:       env.configs,
		Conversations: conversation.NewScopes(env.conversations),
		Messages:      message.NewScopes(loggingMessages{MemoryStore: env.messages, log: log}),
		Feedback:      feedback,
		Responder:     env.responder,
		TypingDelay:   time.Millisecond,
		NewPoster:     func(Config) MessagePoster { return env.poster },
	})
	if err := env.channel.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return env
}

func (e *testEnv) conversation(t *testing.T, thread, user string) conversation.Conversation {
	t.Helper()
	conv, err := e.conversations.Recent(context.Background(), testBotID, conversationKey(Type.String(), thread, user))
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conv
}

func signRequest(req *http.Request, body []byte, secret string, at time.Time) {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func conversationKey(channelType, thread, user string) conversation.Key {
	return conversation.Key{Channel: channelType, Thread: thread, UserRef: user}
}
