package api

import (
	"context"
	"log/slog"

	"github.com/tmoore-dev/reeltap/internal/fallback"
)

// logAttempts records a request's full fallback attempt history at debug
// level, including the attempt that ultimately succeeded (toFallbackFailure
// only ever records failures, so this is the one place the complete,
// in-order history - success or not - is visible).
func logAttempts(ctx context.Context, op string, attempts []fallback.Attempt) {
	if len(attempts) == 0 {
		return
	}
	for _, a := range attempts {
		kind := a.Kind()
		outcome := "ok"
		if kind != "" {
			outcome = string(kind)
		}
		slog.DebugContext(ctx, "fallback attempt", "op", op, "profile", a.Profile, "outcome", outcome, "elapsed", a.Duration)
	}
}
