// Package progress tracks fetch-progress milestones for in-flight
// requests and fans them out to interested subscribers without ever
// blocking the fetch goroutine that produces them.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Update is a single progress milestone for one job.
type Update struct {
	JobID      string    `json:"job_id"`
	Percentage int       `json:"percentage"`
	Profile    string    `json:"profile"`
	Timestamp  time.Time `json:"timestamp"`
}

// Broadcaster tracks the latest progress percentage per job and fans out
// updates to subscribers over bounded, non-blocking channels. A slow or
// absent subscriber can never stall extraction: updates are dropped, not
// queued, when a subscriber's channel is full.
type Broadcaster struct {
	mu       sync.RWMutex
	progress map[string]int

	subMu       sync.RWMutex
	subscribers map[string]chan Update

	log *slog.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		progress:    make(map[string]int),
		subscribers: make(map[string]chan Update),
		log:         slog.Default().With("component", "progress"),
	}
}

// UpdateProgress records and broadcasts a progress percentage for jobID.
func (b *Broadcaster) UpdateProgress(jobID, profile string, percentage int) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	b.mu.Lock()
	if percentage >= 100 {
		delete(b.progress, jobID)
	} else {
		b.progress[jobID] = percentage
	}
	b.mu.Unlock()

	update := Update{JobID: jobID, Percentage: percentage, Profile: profile, Timestamp: time.Now()}

	b.subMu.RLock()
	defer b.subMu.RUnlock()
	for subID, ch := range b.subscribers {
		select {
		case ch <- update:
		default:
			b.log.Debug("progress subscriber channel full, dropping update", "subscriber_id", subID, "job_id", jobID)
		}
	}
}

// ClearProgress removes any tracked progress for jobID, e.g. once the
// job's HTTP response has been written.
func (b *Broadcaster) ClearProgress(jobID string) {
	b.mu.Lock()
	delete(b.progress, jobID)
	b.mu.Unlock()
}

// Progress returns the last known percentage for jobID.
func (b *Broadcaster) Progress(jobID string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.progress[jobID]
	return p, ok
}

// Subscribe registers a new bounded subscriber channel and returns it
// along with an ID to later Unsubscribe with.
func (b *Broadcaster) Subscribe() (string, <-chan Update) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	subID := fmt.Sprintf("sub-%d", len(b.subscribers)+1)
	ch := make(chan Update, 16)
	b.subscribers[subID] = ch
	return subID, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	if ch, ok := b.subscribers[subID]; ok {
		close(ch)
		delete(b.subscribers, subID)
	}
}

// CreateTracker builds a Tracker scoped to jobID over [minPercent, maxPercent].
func (b *Broadcaster) CreateTracker(jobID, profile string, minPercent, maxPercent int) *Tracker {
	return NewTracker(b, jobID, profile, minPercent, maxPercent)
}

// context key for carrying a Broadcaster through request-scoped contexts.
type broadcasterKey struct{}

// WithBroadcaster attaches b to ctx.
func WithBroadcaster(ctx context.Context, b *Broadcaster) context.Context {
	return context.WithValue(ctx, broadcasterKey{}, b)
}

// FromContext retrieves a Broadcaster previously attached with WithBroadcaster.
func FromContext(ctx context.Context) (*Broadcaster, bool) {
	b, ok := ctx.Value(broadcasterKey{}).(*Broadcaster)
	return b, ok
}
