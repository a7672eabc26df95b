package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/fallback"
	"github.com/tmoore-dev/reeltap/internal/profiles"
)

// resolvePlan builds a FallbackPlan for one request: preferred (if
// non-empty) is placed first, the server's configured default order
// follows, and any profile requiring credentials is dropped unless the
// credential store is populated. An unknown preferred name is treated as
// if none were given, never rejected.
func (s *Server) resolvePlan(preferred string) (*fallback.Plan, error) {
	return fallback.NewPlan(s.appCtx.DefaultPlan, profiles.Profile(preferred), s.appCtx.Controller.CredentialsAvailable())
}

func (s *Server) handleInfo(c *fiber.Ctx) error {
	var body InfoRequestBody
	if err := c.BodyParser(&body); err != nil {
		return RespondBadRequest(c, "invalid request body", err.Error())
	}
	if body.URL == "" {
		return RespondBadRequest(c, "url is required", "")
	}

	plan, err := s.resolvePlan(body.Profile)
	if err != nil {
		return RespondBadRequest(c, "no usable profile for this request", err.Error())
	}

	ctx := c.UserContext()
	result, attempts, err := s.appCtx.Controller.RunProbe(ctx, plan, body.URL)
	logAttempts(ctx, "info", attempts)

	if err != nil {
		kind := apperrors.KindOf(err)
		if failure, ok := err.(*apperrors.FallbackFailure); ok {
			kind = failure.LastKind()
		}
		s.appCtx.Metrics.ProbeRequests.WithLabelValues(string(kind)).Inc()
		for _, a := range attempts {
			s.appCtx.Metrics.FallbackAttempts.WithLabelValues(string(a.Profile), string(a.Kind())).Inc()
		}
		return RespondExtractError(c, err)
	}
	s.appCtx.Metrics.ProbeRequests.WithLabelValues("ok").Inc()
	for _, a := range attempts {
		s.appCtx.Metrics.FallbackAttempts.WithLabelValues(string(a.Profile), string(a.Kind())).Inc()
	}

	resp := MediaInfoResponse{
		Title:          result.Title,
		Duration:       result.Duration,
		Thumbnail:      result.Thumbnail,
		Uploader:       result.Uploader,
		ViewCount:      result.ViewCount,
		FilesizeApprox: result.FilesizeApprox,
		WebpageURL:     result.WebpageURL,
		Extractor:      result.Extractor,
	}
	for _, f := range result.Formats {
		resp.Formats = append(resp.Formats, FormatResponse{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Bitrate:    f.Bitrate,
			Duration:   f.Duration,
			Filesize:   f.Filesize,
		})
	}

	return RespondSuccess(c, resp)
}
