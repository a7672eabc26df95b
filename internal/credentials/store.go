// Package credentials manages the service's single, server-side credential
// blob and materialises it to ephemeral, per-fetch cookie files handed to
// the extractor's "cookies" profile. No credential material is ever
// accepted from a request body: it is sourced once, from the process
// environment, at startup.
package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store holds the decoded credential blob in memory and writes/tears down
// cookie files scoped to a single fetch attempt. Every acquired handle
// must be released on every exit path, successful or not, so no
// credential material outlives the attempt that needed it.
type Store struct {
	fs  afero.Fs
	dir string

	blob []byte // nil/empty when no credential material was configured

	onUnlinkFailure func()
}

// Load builds a Store from an optional base64-encoded credential blob,
// read once at startup from process environment (config.CredentialBlobBase64).
// An empty blobBase64 yields an empty Store. Invalid encoding is a
// non-fatal warning: the Store becomes empty and credentialled profiles
// are disabled for the lifetime of the process, rather than failing
// startup outright.
func Load(fs afero.Fs, dir string, blobBase64 string) *Store {
	s := &Store{fs: fs, dir: dir}

	if blobBase64 == "" {
		return s
	}

	decoded, err := base64.StdEncoding.DecodeString(blobBase64)
	if err != nil {
		slog.Warn("credentials: invalid credentialBlobBase64, disabling credentialled profiles", "error", err)
		return s
	}

	s.blob = decoded
	return s
}

// IsPopulated reports whether a credential blob was successfully loaded.
// The fallback controller consults this when building a FallbackPlan:
// credentialled profiles are dropped entirely when it is false.
func (s *Store) IsPopulated() bool {
	return s != nil && len(s.blob) > 0
}

// OnUnlinkFailure registers a callback invoked whenever Release exhausts
// its retries without deleting the cookie file, so callers can surface
// it as a metric without this package depending on one.
func (s *Store) OnUnlinkFailure(fn func()) {
	s.onUnlinkFailure = fn
}

// Handle is a released-once credential file reference.
type Handle struct {
	Path string

	store *Store
}

// Acquire materialises the store's credential blob to a fresh,
// attempt-scoped file and returns a Handle for it. Each call gets its own
// copy of the blob, since independent concurrent fetches must not share a
// mutable file. The write is retried a few times since the store
// directory may be on a network filesystem subject to transient errors.
func (s *Store) Acquire(ctx context.Context) (*Handle, error) {
	if !s.IsPopulated() {
		return nil, fmt.Errorf("credentials: store has no credential material loaded")
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("credentials: create store dir: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+".cookies.txt")

	err := retry.Do(
		func() error {
			return afero.WriteFile(s.fs, path, s.blob, 0o600)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("credentials: write cookie file: %w", err)
	}

	return &Handle{Path: path, store: s}, nil
}

// Release deletes the backing cookie file. Failure to unlink never fails
// the calling request, since the parent request has already succeeded or
// failed on its own terms by the time Release runs: it is logged at warn
// and reported through the OnUnlinkFailure callback. The store reaper
// does not sweep cookie files, so a file that could not be unlinked
// stays on disk.
func (h *Handle) Release(ctx context.Context) {
	if h == nil {
		return
	}

	err := retry.Do(
		func() error {
			return h.store.fs.Remove(h.Path)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		slog.WarnContext(ctx, "credentials: failed to unlink cookie file", "path", h.Path, "error", err)
		if h.store.onUnlinkFailure != nil {
			h.store.onUnlinkFailure()
		}
	}
}
