package healthcheck

import (
	"context"

	"github.com/memohai/chatbridge/internal/bots"
)

// RuntimeCheckerAdapter exposes a Checker as a bots.RuntimeChecker.
type RuntimeCheckerAdapter struct {
	checker Checker
}

// NewRuntimeCheckerAdapter wraps checker.
func NewRuntimeCheckerAdapter(checker Checker) *RuntimeCheckerAdapter {
	return &RuntimeCheckerAdapter{checker: checker}
}

// ListChecks converts checker results into bot check rows.
func (a *RuntimeCheckerAdapter) ListChecks(ctx context.Context, botID string) []bots.BotCheck {
	if a == nil || a.checker == nil {
		return []bots.BotCheck{}
	}
	items := a.checker.ListChecks(ctx, botID)
	result := make([]bots.BotCheck, len(items))
	for i, item := range items {
		result[i] = bots.BotCheck(item)
	}
	return result
}
