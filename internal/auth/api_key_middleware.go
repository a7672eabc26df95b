// Package auth provides the service's single shared-secret API key check.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
)

// APIKeyMiddleware rejects any request that does not present apiKey via
// the X-API-Key header, an Authorization: Bearer header, or an apikey
// query parameter. Comparison is constant-time to avoid leaking the key
// length/prefix through timing.
func APIKeyMiddleware(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   string(apperrors.Internal),
				"message": "API key not configured",
			})
		}

		provided := extractKey(c)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   string(apperrors.Unauthorized),
				"message": "valid API key required",
			})
		}

		return c.Next()
	}
}

func extractKey(c *fiber.Ctx) string {
	if k := c.Query("apikey"); k != "" {
		return k
	}
	if k := c.Get("X-API-Key"); k != "" {
		return k
	}
	if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
