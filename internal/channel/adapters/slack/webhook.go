package slack

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/memohai/chatbridge/internal/channel"
)

const headerRetryNum = "X-Slack-Retry-Num"

// WebhookHandler receives Slack Events API and interactivity callbacks.
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
		logger:  log.With(slog.String("handler", "slack_webhook")),
		channel: ch,
	}
}

// Register registers webhook callback routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/channels/slack/:bot_id/webhook", h.HandleEvents)
	e.POST("/channels/slack/:bot_id/interactive", h.HandleInteractive)
}

// HandleEvents processes Events API requests.
func (h *WebhookHandler) HandleEvents(c echo.Context) error {
	botID, body, err := h.authenticate(c)
	if err != nil {
		return err
	}
	log := h.logger.With(slog.String("bot_id", botID))

	env, err := DecodeEventCallback(body)
	if err != nil {
		log.Warn("discard slack event", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}
	if env.Type == slackevents.URLVerification {
		return c.JSON(http.StatusOK, map[string]string{"challenge": env.Challenge})
	}
	if env.Message == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx := context.WithoutCancel(c.Request().Context())
	if !h.channel.claimEvent(ctx, botID, env.EventID) {
		log.Debug("duplicate slack event",
			slog.String("event_id", env.EventID),
			slog.Int("retry", retryAttempt(c.Request().Header)),
		)
		return c.NoContent(http.StatusOK)
	}
	messageKey := env.Message.MessageKey()
	if !h.channel.claimEvent(ctx, botID, messageKey) {
		log.Debug("slack message already received",
			slog.String("event_id", env.EventID),
			slog.String("type", env.Message.Type),
		)
		return c.NoContent(http.StatusOK)
	}
	payload, ok := NormalizeMessage(*env.Message)
	if !ok {
		return c.NoContent(http.StatusOK)
	}
	if _, err := h.channel.Receive(ctx, botID, env.Message.Refs(), payload); err != nil {
		if errors.Is(err, channel.ErrResolution) {
			log.Warn("discard slack event", slog.String("event_id", env.EventID), slog.Any("error", err))
			return c.NoContent(http.StatusOK)
		}
		h.channel.releaseEvent(botID, env.EventID)
		h.channel.releaseEvent(botID, messageKey)
		log.Error("receive slack message failed", slog.String("event_id", env.EventID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "receive failed")
	}
	return c.NoContent(http.StatusOK)
}

// HandleInteractive processes block action callbacks.
func (h *WebhookHandler) HandleInteractive(c echo.Context) error {
	botID, body, err := h.authenticate(c)
	if err != nil {
		return err
	}
	log := h.logger.With(slog.String("bot_id", botID))

	form, err := url.ParseQuery(string(body))
	if err != nil {
		log.Warn("discard slack interaction", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}
	ev, err := DecodeInteraction([]byte(form.Get("payload")))
	if err != nil {
		log.Warn("discard slack interaction", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}
	ctx := context.WithoutCancel(c.Request().Context())
	payload, ok := h.channel.router.Route(ctx, botID, ev)
	if !ok {
		return c.NoContent(http.StatusOK)
	}
	if _, err := h.channel.Receive(ctx, botID, ev.Refs, payload); err != nil {
		log.Error("receive slack action failed", slog.String("action_id", ev.ActionID), slog.Any("error", err))
		if errors.Is(err, channel.ErrResolution) {
			return c.NoContent(http.StatusOK)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "receive failed")
	}
	return c.NoContent(http.StatusOK)
}

// authenticate resolves the bot, reads the body and checks the Slack request
// signature.
func (h *WebhookHandler) authenticate(c echo.Context) (string, []byte, error) {
	botID := strings.TrimSpace(c.Param("bot_id"))
	if botID == "" {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "bot id is required")
	}
	if h.channel.State() != channel.StateListening {
		return "", nil, echo.NewHTTPError(http.StatusServiceUnavailable, "slack channel is not listening")
	}
	cfg, err := h.channel.resolveConfig(c.Request().Context(), botID)
	if err != nil {
		if errors.Is(err, channel.ErrResolution) {
			return "", nil, echo.NewHTTPError(http.StatusNotFound, "slack is not configured for this bot")
		}
		return "", nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	body, err := channel.ReadWebhookBody(c.Request().Body)
	if err != nil {
		if errors.Is(err, channel.ErrBodyTooLarge) {
			return "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		}
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := verifySignature(c.Request().Header, body, cfg.SigningSecret); err != nil {
		h.logger.Warn("slack signature rejected", slog.String("bot_id", botID), slog.Any("error", err))
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid slack signature")
	}
	return botID, body, nil
}

func verifySignature(header http.Header, body []byte, secret string) error {
	verifier, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

// retryAttempt parses X-Slack-Retry-Num; 0 means first delivery.
func retryAttempt(header http.Header) int {
	n, err := strconv.Atoi(header.Get(headerRetryNum))
	if err != nil {
		return 0
	}
	return n
}
