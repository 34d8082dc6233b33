package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/channel"
)

const headerSecretToken = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler receives Telegram webhook updates.
type WebhookHandler struct {
	logger  *slog.Logger
	channel *Channel
}

// NewWebhookHandler creates the public webhook handler for ch.
func NewWebhookHandler(log *slog.Logger, ch *Channel) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:  log.With(slog.String("handler", "telegram_webhook")),
		channel: ch,
	}
}

// Register registers webhook callback routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/channels/telegram/:bot_id/webhook", h.Handle)
}

// Handle processes one update. Messages from bots, edits and unsupported
// update kinds are acknowledged and dropped.
func (h *WebhookHandler) Handle(c echo.Context) error {
	botID := strings.TrimSpace(c.Param("bot_id"))
	if botID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bot id is required")
	}
	if h.channel.State() != channel.StateListening {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "telegram channel is not listening")
	}
	cfg, err := h.channel.resolveConfig(c.Request().Context(), botID)
	if err != nil {
		if errors.Is(err, channel.ErrResolution) {
			return echo.NewHTTPError(http.StatusNotFound, "telegram is not configured for this bot")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if cfg.SecretToken != "" {
		got := c.Request().Header.Get(headerSecretToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.SecretToken)) != 1 {
			h.logger.Warn("telegram secret token rejected", slog.String("bot_id", botID))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid telegram secret token")
		}
	}
	body, err := channel.ReadWebhookBody(c.Request().Body)
	if err != nil {
		if errors.Is(err, channel.ErrBodyTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	log := h.logger.With(slog.String("bot_id", botID))
	update, err := DecodeUpdate(body)
	if err != nil {
		log.Warn("discard telegram update", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}
	log = log.With(slog.Int("update_id", update.UpdateID))

	ctx := context.WithoutCancel(c.Request().Context())
	var (
		refs    channel.Refs
		payload channel.InboundPayload
		ok      bool
	)
	switch {
	case update.Message != nil:
		payload, ok = NormalizeMessage(update.Message)
		refs = MessageRefs(update.Message)
	case update.CallbackQuery != nil:
		clients, err := h.channel.clients.ForTenant(ctx, botID)
		if err != nil {
			log.Error("telegram client unavailable", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusInternalServerError, "client unavailable")
		}
		payload, ok = h.channel.router.Route(ctx, botID, clients.Bot, update.CallbackQuery)
		refs = CallbackRefs(update.CallbackQuery)
	}
	if !ok {
		return c.NoContent(http.StatusOK)
	}
	if _, err := h.channel.Receive(ctx, botID, refs, payload); err != nil {
		if errors.Is(err, channel.ErrResolution) {
			log.Warn("discard telegram update", slog.Any("error", err))
			return c.NoContent(http.StatusOK)
		}
		log.Error("receive telegram update failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "receive failed")
	}
	return c.NoContent(http.StatusOK)
}
