// Package app assembles the service's dependencies into a single
// immutable context built once at startup and passed explicitly to the
// HTTP layer, never reached through package-level globals.
package app

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/tmoore-dev/reeltap/internal/cache"
	"github.com/tmoore-dev/reeltap/internal/config"
	"github.com/tmoore-dev/reeltap/internal/credentials"
	"github.com/tmoore-dev/reeltap/internal/extractor"
	"github.com/tmoore-dev/reeltap/internal/fallback"
	"github.com/tmoore-dev/reeltap/internal/metrics"
	"github.com/tmoore-dev/reeltap/internal/profiles"
	"github.com/tmoore-dev/reeltap/internal/progress"
	"github.com/tmoore-dev/reeltap/internal/store"
)

// Context bundles every dependency an HTTP handler needs. It is
// constructed once in cmd/reeltap and never mutated afterward.
type Context struct {
	Config      *config.Config
	Logger      *slog.Logger
	Controller  *fallback.Controller
	ProbeCache  *cache.ProbeCache
	Store       *store.Store
	Reaper      *store.Reaper
	Progress    *progress.Broadcaster
	Metrics     *metrics.Metrics
	StartedAt   time.Time
	DefaultPlan []profiles.Profile
}

// New wires together a Context from cfg.
func New(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Context, error) {
	m := metrics.New(reg)

	probeCache, err := cache.NewProbeCache(cfg.ProbeCacheSize, cfg.ProbeCacheTTL())
	if err != nil {
		return nil, err
	}

	probeCache.OnHit(m.ProbeCacheHits.Inc)
	probeCache.OnMiss(m.ProbeCacheMisses.Inc)

	fs := afero.NewOsFs()
	credStore := credentials.Load(fs, cfg.DownloadDir+"/.credentials", cfg.CredentialBlobBase64)
	credStore.OnUnlinkFailure(m.CredentialUnlinkFailures.Inc)

	fileStore := store.New(fs, cfg.DownloadDir, cfg.ReaperWindow())

	reaper, err := store.NewReaper(fileStore, cfg.ReaperCronSpec())
	if err != nil {
		return nil, err
	}
	reaper.OnEntryReaped(m.StoreEntriesReaped.Inc)

	adapter := extractor.NewExecAdapter(cfg.ExtractorBinary)
	controller := fallback.NewController(adapter, credStore, probeCache)

	order, err := profiles.ParseOrder(cfg.ProfileOrder)
	if err != nil {
		return nil, err
	}

	return &Context{
		Config:      cfg,
		Logger:      logger,
		Controller:  controller,
		ProbeCache:  probeCache,
		Store:       fileStore,
		Reaper:      reaper,
		Progress:    progress.NewBroadcaster(),
		Metrics:     m,
		StartedAt:   time.Now(),
		DefaultPlan: order,
	}, nil
}
