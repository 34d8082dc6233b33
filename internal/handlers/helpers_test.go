package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/auth"
	"github.com/memohai/chatbridge/internal/channel"
	"github.com/memohai/chatbridge/internal/message"
)

const testJWTSecret = "test-secret"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentPayload struct {
	botID          string
	conversationID string
	payload        channel.Payload
}

type fakeChannel struct {
	channelType channel.ChannelType
	state       channel.State
	sendErr     error

	mu   sync.Mutex
	sent []sentPayload
}

func (f *fakeChannel) Type() channel.ChannelType { return f.channelType }

func (f *fakeChannel) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:         f.channelType,
		DisplayName:  strings.ToUpper(string(f.channelType)),
		Capabilities: channel.ChannelCapabilities{Text: true},
	}
}

func (f *fakeChannel) State() channel.State { return f.state }

func (f *fakeChannel) Setup(context.Context) error {
	f.state = channel.StateListening
	return nil
}

func (f *fakeChannel) Send(_ context.Context, botID, conversationID string, payload channel.Payload) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentPayload{botID: botID, conversationID: conversationID, payload: payload})
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) Receive(context.Context, string, channel.Refs, channel.InboundPayload) (message.Message, error) {
	return message.Message{}, nil
}

func (f *fakeChannel) sentPayloads() []sentPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPayload(nil), f.sent...)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(auth.JWTMiddleware(testJWTSecret, func(c echo.Context) bool {
		path := c.Request().URL.Path
		return path == "/ping" || path == "/health"
	}))
	return e
}

func botToken(t *testing.T, botID string) string {
	t.Helper()
	token, _, err := auth.GenerateBotToken(botID, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func doRequest(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
