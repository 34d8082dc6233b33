package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/chatbridge/internal/auth"
	"github.com/memohai/chatbridge/internal/bots"
	"github.com/memohai/chatbridge/internal/conversation"
	"github.com/memohai/chatbridge/internal/message"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type BotsHandler struct {
	logger        *slog.Logger
	directory     *bots.Directory
	conversations *conversation.Scopes
	messages      *message.Scopes
}

func NewBotsHandler(log *slog.Logger, directory *bots.Directory, conversations *conversation.Scopes, messages *message.Scopes) *BotsHandler {
	return &BotsHandler{
		logger:        log.With(slog.String("handler", "bots")),
		directory:     directory,
		conversations: conversations,
		messages:      messages,
	}
}

func (h *BotsHandler) Register(e *echo.Echo) {
	group := e.Group("/bots")
	group.GET("", h.List)
	group.GET("/:bot_id", h.Get)
	group.GET("/:bot_id/checks", h.ListChecks)
	group.GET("/:bot_id/conversations", h.ListConversations)
	group.GET("/:bot_id/conversations/:conversation_id/messages", h.ListMessages)
}

// List godoc
// @Summary List bots
// @Description List configured bots with their check summary
// @Tags bots
// @Success 200 {object} bots.ListBotsResponse
// @Router /bots [get]
func (h *BotsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	items := h.directory.List(ctx)
	for i := range items {
		checks, err := h.directory.ListChecks(ctx, items[i].ID)
		if err != nil {
			h.logger.Warn("list checks failed", slog.String("bot_id", items[i].ID), slog.Any("error", err))
			continue
		}
		items[i].CheckState, items[i].CheckIssueCount = bots.SummarizeChecks(checks)
	}
	return c.JSON(http.StatusOK, bots.ListBotsResponse{Items: items})
}

// Get godoc
// @Summary Get bot
// @Tags bots
// @Param bot_id path string true "Bot ID"
// @Success 200 {object} bots.Bot
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bots/{bot_id} [get]
func (h *BotsHandler) Get(c echo.Context) error {
	botID, err := h.requireBot(c)
	if err != nil {
		return err
	}
	bot, err := h.directory.Get(c.Request().Context(), botID)
	if err != nil {
		return botError(err)
	}
	return c.JSON(http.StatusOK, bot)
}

// ListChecks godoc
// @Summary List bot checks
// @Description Evaluate the static and runtime checks of a bot
// @Tags bots
// @Param bot_id path string true "Bot ID"
// @Success 200 {object} bots.ListChecksResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bots/{bot_id}/checks [get]
func (h *BotsHandler) ListChecks(c echo.Context) error {
	botID, err := h.requireBot(c)
	if err != nil {
		return err
	}
	checks, err := h.directory.ListChecks(c.Request().Context(), botID)
	if err != nil {
		return botError(err)
	}
	state, issues := bots.SummarizeChecks(checks)
	return c.JSON(http.StatusOK, bots.ListChecksResponse{
		State:      state,
		IssueCount: issues,
		Items:      checks,
	})
}

// ListConversations godoc
// @Summary List conversations
// @Tags bots
// @Param bot_id path string true "Bot ID"
// @Param limit query int false "Maximum number of conversations"
// @Success 200 {array} conversation.Conversation
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /bots/{bot_id}/conversations [get]
func (h *BotsHandler) ListConversations(c echo.Context) error {
	botID, err := h.requireBot(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	scope, err := h.conversations.ForTenant(ctx, botID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	items, err := scope.List(ctx, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// ListMessages godoc
// @Summary List messages of a conversation
// @Tags bots
// @Param bot_id path string true "Bot ID"
// @Param conversation_id path string true "Conversation ID"
// @Param limit query int false "Maximum number of messages"
// @Success 200 {array} message.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bots/{bot_id}/conversations/{conversation_id}/messages [get]
func (h *BotsHandler) ListMessages(c echo.Context) error {
	botID, err := h.requireBot(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	conversationID := strings.TrimSpace(c.Param("conversation_id"))
	ctx := c.Request().Context()
	convs, err := h.conversations.ForTenant(ctx, botID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := convs.Get(ctx, conversationID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	msgs, err := h.messages.ForTenant(ctx, botID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	items, err := msgs.ListByConversation(ctx, conversationID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BotsHandler) requireBot(c echo.Context) (string, error) {
	botID := strings.TrimSpace(c.Param("bot_id"))
	if botID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "bot id is required")
	}
	if err := auth.RequireBot(c, botID); err != nil {
		return "", err
	}
	return botID, nil
}

func botError(err error) error {
	if errors.Is(err, bots.ErrBotNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
