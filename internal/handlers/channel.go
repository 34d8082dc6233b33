package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/auth"
	"github.com/memohai/chatbridge/internal/channel"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

type ChannelHandler struct {
	logger   *slog.Logger
	registry *channel.Registry
}

func NewChannelHandler(log *slog.Logger, registry *channel.Registry) *ChannelHandler {
	return &ChannelHandler{
		logger:   log.With(slog.String("handler", "channel")),
		registry: registry,
	}
}

func (h *ChannelHandler) Register(e *echo.Echo) {
	metaGroup := e.Group("/channels")
	metaGroup.GET("", h.ListChannels)
	metaGroup.GET("/:platform", h.GetChannel)

	e.POST("/bots/:bot_id/channels/:platform/send", h.Send)
}

// ChannelMeta is a registered channel with its lifecycle state.
type ChannelMeta struct {
	channel.Descriptor
	State string `json:"state"`
}

// SendRequest is the body of an outbound send.
type SendRequest struct {
	ConversationID string          `json:"conversation_id"`
	Payload        channel.Payload `json:"payload"`
}

// ListChannels godoc
// @Summary List registered channels
// @Description List channel descriptors, capabilities and lifecycle states
// @Tags channel
// @Success 200 {array} ChannelMeta
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	channels := h.registry.List()
	items := make([]ChannelMeta, 0, len(channels))
	for _, ch := range channels {
		items = append(items, ChannelMeta{
			Descriptor: ch.Descriptor(),
			State:      ch.State().String(),
		})
	}
	return c.JSON(http.StatusOK, items)
}

// GetChannel godoc
// @Summary Get channel
// @Tags channel
// @Param platform path string true "Channel platform"
// @Success 200 {object} ChannelMeta
// @Failure 404 {object} ErrorResponse
// @Router /channels/{platform} [get]
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channelType, err := h.registry.ParseChannelType(c.Param("platform"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	ch, _ := h.registry.Get(channelType)
	return c.JSON(http.StatusOK, ChannelMeta{
		Descriptor: ch.Descriptor(),
		State:      ch.State().String(),
	})
}

// Send godoc
// @Summary Send a payload
// @Description Render and deliver a payload to a conversation of the bot
// @Tags channel
// @Param bot_id path string true "Bot ID"
// @Param platform path string true "Channel platform"
// @Param payload body SendRequest true "Conversation and payload"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /bots/{bot_id}/channels/{platform}/send [post]
func (h *ChannelHandler) Send(c echo.Context) error {
	botID := strings.TrimSpace(c.Param("bot_id"))
	if botID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bot id is required")
	}
	if err := auth.RequireBot(c, botID); err != nil {
		return err
	}
	channelType, err := h.registry.ParseChannelType(c.Param("platform"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	ch, _ := h.registry.Get(channelType)

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id is required")
	}
	if err := req.Payload.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := ch.Send(c.Request().Context(), botID, req.ConversationID, req.Payload); err != nil {
		status := sendErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("send failed",
				slog.String("bot_id", botID),
				slog.String("channel", channelType.String()),
				slog.Any("error", err),
			)
		}
		return echo.NewHTTPError(status, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, channel.ErrNotListening):
		return http.StatusServiceUnavailable
	case errors.Is(err, channel.ErrResolution):
		return http.StatusNotFound
	case errors.Is(err, channel.ErrDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
