package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tmoore-dev/reeltap/internal/api"
	"github.com/tmoore-dev/reeltap/internal/app"
	"github.com/tmoore-dev/reeltap/internal/config"
	"github.com/tmoore-dev/reeltap/internal/slogutil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slogutil.SetupLogRotation(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx, err := app.New(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	appCtx.Reaper.Start()
	defer appCtx.Reaper.Stop()

	fiberCfg := fiber.Config{
		ReadTimeout:  cfg.RequestTimeout(),
		WriteTimeout: cfg.RequestTimeout(),
	}
	if cfg.WorkerCount > 0 {
		fiberCfg.Concurrency = cfg.WorkerCount
	}
	fapp := fiber.New(fiberCfg)
	api.NewServer(nil, appCtx).SetupRoutes(fapp)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		_ = fapp.ShutdownWithContext(context.Background())
	}()

	slog.Info("starting reeltap", "bind_address", cfg.BindAddress)
	return fapp.Listen(cfg.BindAddress)
}
