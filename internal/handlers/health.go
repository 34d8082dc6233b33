package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/channel"
)

// HealthHandler serves liveness and readiness probes. Readiness requires
// every registered channel to be listening.
type HealthHandler struct {
	logger   *slog.Logger
	registry *channel.Registry
}

func NewHealthHandler(log *slog.Logger, registry *channel.Registry) *HealthHandler {
	return &HealthHandler{
		logger:   log.With(slog.String("handler", "health")),
		registry: registry,
	}
}

func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.GET("/health", h.Ready)
	e.HEAD("/health", h.ReadyHead)
}

func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	states := make(map[string]string)
	ready := true
	for _, ch := range h.registry.List() {
		state := ch.State()
		states[ch.Type().String()] = state.String()
		if state != channel.StateListening {
			ready = false
		}
	}
	status := http.StatusOK
	body := map[string]any{"status": "ok", "channels": states}
	if !ready {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}
	return c.JSON(status, body)
}

func (h *HealthHandler) ReadyHead(c echo.Context) error {
	for _, ch := range h.registry.List() {
		if ch.State() != channel.StateListening {
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}
	return c.NoContent(http.StatusOK)
}
