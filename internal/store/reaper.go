package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
)

// Reaper periodically deletes expired store entries on a cron schedule.
// Deletions within a single sweep run concurrently under conc, which
// converts any panic in a deletion goroutine into a recovered log entry
// instead of crashing the process.
type Reaper struct {
	store *Store
	cron  *cron.Cron
	log   *slog.Logger

	mu      sync.Mutex
	running bool

	onEntryReaped func()
}

// OnEntryReaped registers a callback invoked once per entry successfully
// deleted by a sweep, so callers can surface it as a metric without this
// package depending on one.
func (r *Reaper) OnEntryReaped(fn func()) {
	r.onEntryReaped = fn
}

// NewReaper builds a Reaper over store, sweeping on the given cron spec
// (e.g. "@every 5m").
func NewReaper(s *Store, spec string) (*Reaper, error) {
	c := cron.New()
	r := &Reaper{store: s, cron: c, log: slog.Default().With("component", "reaper")}

	if _, err := c.AddFunc(spec, func() { r.sweep(context.Background()) }); err != nil {
		return nil, err
	}

	return r, nil
}

// Start begins the cron schedule. It is idempotent: calling Start twice
// without an intervening Stop is a no-op.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.cron.Start()
	r.log.Info("reaper started")
}

// Stop halts the cron schedule and waits for any in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.running = false
	r.log.Info("reaper stopped")
}

// SweepNow runs one sweep synchronously, outside of the cron schedule.
// Used directly by tests.
func (r *Reaper) SweepNow(ctx context.Context) {
	r.sweep(ctx)
}

func (r *Reaper) sweep(ctx context.Context) {
	expired := r.store.Expired(time.Now())
	if len(expired) == 0 {
		return
	}

	r.log.InfoContext(ctx, "sweeping expired store entries", "count", len(expired))

	wg := conc.NewWaitGroup()
	for _, e := range expired {
		entry := e
		wg.Go(func() {
			if err := r.store.Delete(ctx, entry.ID); err != nil {
				r.log.ErrorContext(ctx, "failed to delete expired entry", "id", entry.ID, "path", entry.Path, "error", err)
				return
			}
			if r.onEntryReaped != nil {
				r.onEntryReaped()
			}
		})
	}
	if rec := wg.WaitAndRecover(); rec != nil {
		r.log.ErrorContext(ctx, "panic while deleting expired entry", "panic", rec.Value)
	}
}
