package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/channel"
)

func newHealthTestServer(channels ...*fakeChannel) *echo.Echo {
	registry := channel.NewRegistry()
	for _, ch := range channels {
		registry.MustRegister(ch)
	}
	e := newTestEcho()
	NewHealthHandler(newTestLogger(), registry).Register(e)
	return e
}

func TestPingSkipsAuth(t *testing.T) {
	t.Parallel()

	e := newHealthTestServer()
	rec := doRequest(e, http.MethodGet, "/ping", "", "")
	assertStatus(t, rec, http.StatusOK)
}

func TestHealthReadyWhenAllChannelsListen(t *testing.T) {
	t.Parallel()

	e := newHealthTestServer(
		&fakeChannel{channelType: "slack", state: channel.StateListening},
		&fakeChannel{channelType: "telegram", state: channel.StateListening},
	)
	assertStatus(t, doRequest(e, http.MethodGet, "/health", "", ""), http.StatusOK)
	assertStatus(t, doRequest(e, http.MethodHead, "/health", "", ""), http.StatusOK)
}

func TestHealthUnavailableWhileConnecting(t *testing.T) {
	t.Parallel()

	e := newHealthTestServer(
		&fakeChannel{channelType: "slack", state: channel.StateListening},
		&fakeChannel{channelType: "telegram", state: channel.StateConnecting},
	)
	rec := doRequest(e, http.MethodGet, "/health", "", "")
	assertStatus(t, rec, http.StatusServiceUnavailable)
	assertStatus(t, doRequest(e, http.MethodHead, "/health", "", ""), http.StatusServiceUnavailable)
}
