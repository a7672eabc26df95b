package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/extractor"
	"github.com/tmoore-dev/reeltap/internal/fallback"
	"github.com/tmoore-dev/reeltap/internal/store"
)

func (s *Server) handleDownload(c *fiber.Ctx) error {
	return s.runDownload(c, false)
}

// handleStream takes identical inputs to handleDownload. A real RunFetch
// always runs; since the process-boundary Adapter writes a complete file
// to disk rather than emitting a byte stream, true progressive delivery
// isn't possible here and the endpoint degrades to serving the completed
// file, exactly like handleDownload. The degrade path is explicit, not a
// silently different behavior.
func (s *Server) handleStream(c *fiber.Ctx) error {
	slog.DebugContext(c.UserContext(), "stream endpoint degrading to file-based delivery: adapter has no progressive-delivery mode")
	return s.runDownload(c, true)
}

func (s *Server) runDownload(c *fiber.Ctx, streaming bool) error {
	var body DownloadRequestBody
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

	cfg := s.appCtx.Config
	durationCap := cfg.MaxDurationSeconds
	if body.MaxDurationSeconds > 0 {
		durationCap = body.MaxDurationSeconds
	}
	caps := fallback.FetchCaps{
		MaxDurationSeconds: durationCap,
		MaxSizeBytes:       cfg.MaxDownloadSizeBytes(),
	}

	jobID := uuid.NewString()
	prefix := store.Prefix(jobID)

	ctx := c.UserContext()
	start := time.Now()

	onProgress := func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		pct := int(downloaded * 100 / total)
		s.appCtx.Progress.UpdateProgress(jobID, "", pct)
	}

	file, attempts, err := s.appCtx.Controller.RunFetch(ctx, plan, body.URL, s.appCtx.Store.Dir(), prefix, body.Format, caps, extractor.ProgressFunc(onProgress))

	s.appCtx.Progress.ClearProgress(jobID)
	logAttempts(ctx, "download", attempts)

	if err != nil {
		kind := apperrors.KindOf(err)
		if failure, ok := err.(*apperrors.FallbackFailure); ok {
			kind = failure.LastKind()
		}
		s.appCtx.Metrics.FetchRequests.WithLabelValues(string(kind)).Inc()
		for _, a := range attempts {
			s.appCtx.Metrics.FallbackAttempts.WithLabelValues(string(a.Profile), string(a.Kind())).Inc()
		}
		return RespondExtractError(c, err)
	}

	// RunFetch succeeded: file is non-nil, so registration with the
	// store (and therefore both eager deletion and eventual reaping)
	// only ever happens for a file that actually exists on disk.
	s.appCtx.Store.Register(jobID, file.Path, file.Size)
	s.appCtx.Metrics.FetchRequests.WithLabelValues("ok").Inc()

	successProfile := ""
	for _, a := range attempts {
		s.appCtx.Metrics.FallbackAttempts.WithLabelValues(string(a.Profile), string(a.Kind())).Inc()
		if a.Err == nil {
			successProfile = string(a.Profile)
		}
	}
	s.appCtx.Metrics.FetchDuration.WithLabelValues(successProfile).Observe(time.Since(start).Seconds())

	if err := s.serveFile(c, jobID, file); err != nil {
		return err
	}

	s.appCtx.Store.ScheduleEagerDelete(jobID, cfg.PostResponseDelay())
	return nil
}

// serveFile opens the registered file through the store's filesystem and
// hands it to Fiber as the response body stream. The file is not closed
// here: the body is read after the handler returns, and fasthttp closes
// the stream once it has been sent.
func (s *Server) serveFile(c *fiber.Ctx, jobID string, file *extractor.FetchedFile) error {
	f, _, err := s.appCtx.Store.Open(jobID)
	if err != nil {
		return RespondInternalError(c, "failed to open fetched file", err.Error())
	}

	c.Set(fiber.HeaderContentType, file.MIMEType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.SuggestedFilename+`"`)
	return c.SendStream(f, int(file.Size))
}
