package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmoore-dev/reeltap/internal/slogutil"
)

// CorrelationIDHeader is the response header carrying the request's
// correlation ID, so a caller can cross-reference logs for one request.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationMiddleware attaches a fresh correlation ID to the request
// context (picked up by every slog call made while handling it) and
// echoes it back on the response. The ID is never included in success
// response bodies, only in logs and this header.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Set(CorrelationIDHeader, id)

		ctx := slogutil.WithAttrs(c.UserContext(), slog.String("correlation_id", id))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequestLoggingMiddleware logs each request's method, path, status and
// duration at debug level once it completes.
func RequestLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		slog.DebugContext(c.UserContext(), "request handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)

		return err
	}
}
