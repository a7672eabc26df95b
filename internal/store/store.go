// Package store manages fetched video files on disk between the moment
// a fetch completes and the moment the reaper sweeps them away.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
)

// Entry describes one stored file and when it becomes eligible for reaping.
type Entry struct {
	ID        string
	Path      string
	Size      int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store tracks fetched files on an afero.Fs and their expiry times so the
// Reaper can find and delete them without re-stat-ing the whole tree on
// every sweep.
type Store struct {
	fs  afero.Fs
	dir string
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates a Store rooted at dir on fs, retaining files for ttl.
func New(fs afero.Fs, dir string, ttl time.Duration) *Store {
	return &Store{fs: fs, dir: dir, ttl: ttl, entries: make(map[string]*Entry)}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Prefix derives a filename-safe, collision-resistant prefix for a fetch
// job from its job ID, so concurrent fetches never clobber each other's
// partial output.
func Prefix(jobID string) string {
	sum := sha256.Sum256([]byte(jobID))
	return hex.EncodeToString(sum[:])[:16]
}

// Register records a newly fetched file and schedules it for expiry.
// Register is called only when RunFetch actually produced a file:
// nothing is scheduled for deletion on a failed or in-flight fetch.
func (s *Store) Register(id, path string, size int64) *Entry {
	now := time.Now()
	e := &Entry{ID: id, Path: path, Size: size, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	return e
}

// Get returns the entry for id, if it is still tracked.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Open opens the stored file for id for reading.
func (s *Store) Open(id string) (afero.File, *Entry, error) {
	e, ok := s.Get(id)
	if !ok {
		return nil, nil, fmt.Errorf("store: unknown entry %q", id)
	}
	f, err := s.fs.Open(e.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open %q: %w", e.Path, err)
	}
	return f, e, nil
}

// Delete removes id's backing file and stops tracking it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := s.fs.Remove(e.Path); err != nil {
		return fmt.Errorf("store: remove %q: %w", e.Path, err)
	}
	return nil
}

// Expired returns all tracked entries whose ExpiresAt has passed.
func (s *Store) Expired(now time.Time) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*Entry
	for _, e := range s.entries {
		if now.After(e.ExpiresAt) {
			expired = append(expired, e)
		}
	}
	return expired
}

// OutputPath joins the store's directory with a filename.
func (s *Store) OutputPath(name string) string {
	return filepath.Join(s.dir, name)
}

// ScheduleEagerDelete deletes id after delay, ahead of the reaper's full
// sweep window, so a file that has already been served does not
// needlessly occupy disk until the reaper's next pass. It runs detached,
// under conc, which recovers a panic during the wait or the delete so it
// cannot crash the process; the recovered panic is not logged, since
// nothing waits on the group. It is a no-op if id has
// already been deleted (by the reaper or a prior eager delete) by the
// time the delay elapses.
func (s *Store) ScheduleEagerDelete(id string, delay time.Duration) {
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		time.Sleep(delay)
		if _, ok := s.Get(id); !ok {
			return
		}
		if err := s.Delete(context.Background(), id); err != nil {
			slog.Warn("store: eager delete failed", "id", id, "error", err)
		}
	})
}
