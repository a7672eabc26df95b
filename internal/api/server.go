package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmoore-dev/reeltap/internal/app"
	"github.com/tmoore-dev/reeltap/internal/auth"
)

// Config controls the API server's route prefix.
type Config struct {
	Prefix string
}

// DefaultConfig returns the service's default API configuration.
func DefaultConfig() *Config {
	return &Config{Prefix: "/api"}
}

// Server wires the application Context onto a Fiber app's routes.
type Server struct {
	config    *Config
	appCtx    *app.Context
	startTime time.Time
}

// NewServer creates an API server bound to appCtx.
func NewServer(config *Config, appCtx *app.Context) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{config: config, appCtx: appCtx, startTime: time.Now()}
}

// SetupRoutes registers every route on app: the unauthenticated /health
// and /metrics endpoints, and the API-key-protected resource endpoints
// under the configured prefix.
func (s *Server) SetupRoutes(fapp *fiber.App) {
	fapp.Use(recover.New())
	fapp.Use(cors.New())

	fapp.Get("/health", s.handleHealth)
	fapp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := fapp.Group(s.config.Prefix)
	group.Use(auth.APIKeyMiddleware(s.appCtx.Config.APIKey))
	group.Use(CorrelationMiddleware())
	group.Use(RequestLoggingMiddleware())

	group.Post("/info", s.handleInfo)
	group.Post("/download", s.handleDownload)
	group.Post("/stream", s.handleStream)
}
