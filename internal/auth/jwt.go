// Package auth issues and checks the bot-scoped JWTs that guard the
// management API.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	claimSubject = "sub"
	claimType    = "typ"
	claimBotID   = "bot_id"
	botTokenType = "bot"

	contextKey = "user"
)

// JWTMiddleware returns a JWT auth middleware configured for HS256 tokens.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		ContextKey:    contextKey,
		Skipper:       skipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// GenerateBotToken creates a signed JWT that lets its holder act for botID.
func GenerateBotToken(botID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return "", time.Time{}, fmt.Errorf("bot id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		claimSubject: botID,
		claimType:    botTokenType,
		claimBotID:   botID,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// BotIDFromContext extracts the bot id from a verified bot token.
func BotIDFromContext(c echo.Context) (string, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	if claimString(claims, claimType) != botTokenType {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid bot token")
	}
	botID := strings.TrimSpace(claimString(claims, claimBotID))
	if botID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "bot id missing")
	}
	return botID, nil
}

// RequireBot fails unless the request token was issued for botID.
func RequireBot(c echo.Context, botID string) error {
	tokenBotID, err := BotIDFromContext(c)
	if err != nil {
		return err
	}
	if tokenBotID != strings.TrimSpace(botID) {
		return echo.NewHTTPError(http.StatusForbidden, "token is not valid for this bot")
	}
	return nil
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(raw)
	}
}
