package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tmoore-dev/reeltap/internal/version"
)

// handleHealth never blocks on I/O beyond a stat of the store directory:
// no adapter call, no plan resolution, no cache lookup.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	dir := s.appCtx.Store.Dir()

	var freeBytes uint64
	usage, err := disk.Usage(dir)
	if err != nil {
		slog.WarnContext(c.UserContext(), "health: could not stat download dir", "dir", dir, "error", err)
	} else {
		freeBytes = usage.Free
	}

	return RespondSuccess(c, HealthResponseBody{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		FreeDiskBytes: freeBytes,
		DownloadDir:   dir,
		Version:       version.Version,
	})
}
