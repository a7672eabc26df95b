package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/slogutil"
)

// kindStatus maps the closed error taxonomy onto HTTP status codes. This
// switch must stay exhaustive over apperrors.Kind. 415 is used for
// BadFormat and AmbiguousInput only. An unknown profile name supplied in
// a request never reaches this switch: FallbackPlan construction ignores
// it and builds the plan from the configured order, and a plan that ends
// up empty is answered with 400 by the handlers before any attempt runs.
func kindStatus(k apperrors.Kind) int {
	switch k {
	case apperrors.NotFound:
		return fiber.StatusNotFound
	case apperrors.Unauthorized, apperrors.AuthRequired:
		return fiber.StatusUnauthorized
	case apperrors.BadRequest:
		return fiber.StatusBadRequest
	case apperrors.BadFormat, apperrors.AmbiguousInput:
		return fiber.StatusUnsupportedMediaType
	case apperrors.TooLong, apperrors.TooLarge:
		return fiber.StatusRequestEntityTooLarge
	case apperrors.Timeout:
		return fiber.StatusGatewayTimeout
	case apperrors.GeoBlocked:
		return fiber.StatusForbidden
	case apperrors.BotChallenge, apperrors.Unavailable, apperrors.Throttled,
		apperrors.NoProfilesAvailable, apperrors.NoSpace:
		return fiber.StatusBadGateway
	case apperrors.Internal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondExtractError renders err (expected to be an *apperrors.ExtractError
// or *apperrors.FallbackFailure) as the service's JSON error shape, with
// the status code its terminal Kind maps to. A correlation ID is
// attached only for Internal-kind errors, the one class an operator
// needs to grep logs for; it is never present alongside adapter
// internals for any other kind.
func RespondExtractError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)

	body := ErrorResponseBody{
		Error:   string(kind),
		Message: err.Error(),
	}

	if failure, ok := err.(*apperrors.FallbackFailure); ok {
		kind = failure.LastKind()
		body.Error = string(kind)
		for _, a := range failure.Attempts {
			body.Attempts = append(body.Attempts, AttemptRecord{
				Profile:   a.Profile,
				Outcome:   apperrors.ClassOfKind(a.Kind).String(),
				Kind:      string(a.Kind),
				ElapsedMs: a.ElapsedMs,
			})
		}
	}

	if kind == apperrors.Internal {
		if id, ok := slogutil.CorrelationID(c.UserContext()); ok {
			body.CorrelationID = id
		}
	}

	return c.Status(kindStatus(kind)).JSON(body)
}

// RespondBadRequest sends a 400 Bad Request error for malformed input
// that never reached the fallback controller.
func RespondBadRequest(c *fiber.Ctx, message, details string) error {
	msg := message
	if details != "" {
		msg = message + ": " + details
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponseBody{
		Error:   string(apperrors.BadRequest),
		Message: msg,
	})
}

// RespondInternalError sends a 500 Internal Server Error, attaching a
// correlation ID for operators to cross-reference in logs.
func RespondInternalError(c *fiber.Ctx, message, details string) error {
	msg := message
	if details != "" {
		msg = message + ": " + details
	}
	body := ErrorResponseBody{Error: string(apperrors.Internal), Message: msg}
	if id, ok := slogutil.CorrelationID(c.UserContext()); ok {
		body.CorrelationID = id
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}
