package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/credentials"
	"github.com/tmoore-dev/reeltap/internal/extractor"
	"github.com/tmoore-dev/reeltap/internal/profiles"
)

// ProbeCache is the subset of cache.ProbeCache the controller depends
// on, named here to avoid a dependency from fallback on cache's full API.
type ProbeCache interface {
	GetOrProbe(ctx context.Context, key string, fn func(ctx context.Context) (*extractor.ProbeResult, error)) (*extractor.ProbeResult, bool, error)
}

// FetchCaps bounds a single RunFetch call: a duration cap rejects before
// any bytes are fetched, a size cap aborts mid-download.
type FetchCaps struct {
	MaxDurationSeconds int
	MaxSizeBytes       int64
}

// Controller drives a Plan's profiles in order against an Adapter,
// acquiring and releasing credential material per attempt and stopping
// as soon as a profile succeeds or fails permanently.
type Controller struct {
	adapter    extractor.Adapter
	credStore  *credentials.Store
	probeCache ProbeCache
	log        *slog.Logger
}

// NewController builds a Controller. probeCache may be nil, in which
// case RunProbe always calls the adapter directly.
func NewController(adapter extractor.Adapter, credStore *credentials.Store, probeCache ProbeCache) *Controller {
	return &Controller{
		adapter:    adapter,
		credStore:  credStore,
		probeCache: probeCache,
		log:        slog.Default().With("component", "fallback"),
	}
}

// CredentialsAvailable reports whether the controller's credential store
// has material loaded, the gate FallbackPlan construction consults to
// decide whether credentialled profiles belong in a plan at all.
func (c *Controller) CredentialsAvailable() bool {
	return c.credStore != nil && c.credStore.IsPopulated()
}

// cacheKey derives a stable cache key for a URL independent of which
// profile eventually resolves it, since a probe result is a property of
// the video, not of the profile used to obtain it.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// RunProbe executes plan against url until a profile succeeds, returning
// the result, the per-attempt history, and a *apperrors.FallbackFailure
// if no profile succeeded. A cache hit short-circuits the plan entirely
// and returns an empty attempt list, since a cache hit is not itself an
// attempt. A caller whose miss was collapsed into another caller's
// in-flight probe also gets an empty attempt list.
func (c *Controller) RunProbe(ctx context.Context, plan *Plan, url string) (*extractor.ProbeResult, []Attempt, error) {
	if c.probeCache != nil {
		var attempts []Attempt
		result, hit, err := c.probeCache.GetOrProbe(ctx, cacheKey(url), func(ctx context.Context) (*extractor.ProbeResult, error) {
			result, planAttempts, err := c.runProbePlan(ctx, plan, url)
			attempts = planAttempts
			return result, err
		})
		if hit {
			return result, nil, nil
		}
		if err != nil {
			var failure *apperrors.FallbackFailure
			if errAs(err, &failure) {
				return nil, attempts, failure
			}
			return nil, attempts, err
		}
		return result, attempts, nil
	}

	result, attempts, err := c.runProbePlan(ctx, plan, url)
	return result, attempts, err
}

func (c *Controller) runProbePlan(ctx context.Context, plan *Plan, url string) (*extractor.ProbeResult, []Attempt, error) {
	var attempts []Attempt

	for _, p := range plan.Profiles {
		spec, err := profiles.Lookup(p)
		if err != nil {
			return nil, attempts, err
		}

		cookieFile, release, err := c.acquireCredentials(ctx, spec)
		if err != nil {
			attempts = append(attempts, Attempt{Profile: p, Started: time.Now(), Err: err})
			continue
		}

		start := time.Now()
		result, probeErr := c.adapter.Probe(ctx, extractor.ProbeRequest{URL: url, Profile: spec.ClientArg, CookieFile: cookieFile})
		if release != nil {
			release(ctx)
		}

		attempt := Attempt{Profile: p, Started: start, Duration: time.Since(start), Err: probeErr}
		attempts = append(attempts, attempt)

		if probeErr == nil {
			return result, attempts, nil
		}

		c.log.DebugContext(ctx, "probe attempt failed", "profile", p, "kind", apperrors.KindOf(probeErr))

		if apperrors.ClassOf(probeErr) == apperrors.ClassPermanent {
			return nil, attempts, toFallbackFailure(attempts)
		}
	}

	return nil, attempts, toFallbackFailure(attempts)
}

// RunFetch executes plan against url, downloading into outputDir/prefix,
// trying each profile until one succeeds or fails permanently. If
// caps.MaxDurationSeconds is set, the duration cap is enforced natively
// by the extractor before any bytes are fetched for any profile (see
// ExecAdapter.fetchArgs' --match-filter); the size cap is enforced
// per-profile by the Adapter while streaming.
func (c *Controller) RunFetch(ctx context.Context, plan *Plan, url, outputDir, prefix, formatSelector string, caps FetchCaps, onProgress extractor.ProgressFunc) (*extractor.FetchedFile, []Attempt, error) {
	var attempts []Attempt

	for _, p := range plan.Profiles {
		spec, err := profiles.Lookup(p)
		if err != nil {
			return nil, attempts, err
		}

		cookieFile, release, err := c.acquireCredentials(ctx, spec)
		if err != nil {
			attempts = append(attempts, Attempt{Profile: p, Started: time.Now(), Err: err})
			continue
		}

		start := time.Now()
		file, fetchErr := c.adapter.Fetch(ctx, extractor.FetchRequest{
			URL:                url,
			Profile:            spec.ClientArg,
			FormatSelector:     formatSelector,
			CookieFile:         cookieFile,
			OutputDir:          outputDir,
			OutputPrefix:       prefix,
			MaxDurationSeconds: caps.MaxDurationSeconds,
			MaxSizeBytes:       caps.MaxSizeBytes,
			OnProgress:         onProgress,
		})
		if release != nil {
			release(ctx)
		}

		attempt := Attempt{Profile: p, Started: start, Duration: time.Since(start), Err: fetchErr}
		attempts = append(attempts, attempt)

		if fetchErr == nil {
			return file, attempts, nil
		}

		c.log.DebugContext(ctx, "fetch attempt failed", "profile", p, "kind", apperrors.KindOf(fetchErr))

		if apperrors.ClassOf(fetchErr) == apperrors.ClassPermanent {
			return nil, attempts, toFallbackFailure(attempts)
		}
	}

	return nil, attempts, toFallbackFailure(attempts)
}

// acquireCredentials prepares the cookie file (if any) required by spec,
// returning a release func that must be called exactly once, on every
// exit path, once the attempt using it has finished. FallbackPlan
// construction already drops credentialled profiles when the credential
// store is empty, so reaching a credentialled spec here with no material
// available is a defensive case (e.g. a Plan built directly with
// credentialed=true); it is recorded as AuthRequired, a transient outcome
// the controller advances past, not as a plan-level failure.
func (c *Controller) acquireCredentials(ctx context.Context, spec profiles.Spec) (string, func(context.Context), error) {
	if !spec.RequiresCredentials {
		return "", nil, nil
	}
	if c.credStore == nil || !c.credStore.IsPopulated() {
		return "", nil, apperrors.New(apperrors.AuthRequired, string(spec.Profile), "profile requires credentials but none are configured", nil)
	}

	handle, err := c.credStore.Acquire(ctx)
	if err != nil {
		return "", nil, apperrors.New(apperrors.AuthRequired, string(spec.Profile), "failed to prepare credential file", err)
	}

	return handle.Path, func(ctx context.Context) { handle.Release(ctx) }, nil
}

func toFallbackFailure(attempts []Attempt) error {
	if len(attempts) == 0 {
		return apperrors.New(apperrors.NoProfilesAvailable, "", "no profiles attempted", nil)
	}
	failure := &apperrors.FallbackFailure{}
	for _, a := range attempts {
		if a.Err == nil {
			continue
		}
		failure.Attempts = append(failure.Attempts, apperrors.AttemptError{
			Profile:   string(a.Profile),
			Kind:      apperrors.KindOf(a.Err),
			Message:   a.Err.Error(),
			ElapsedMs: a.Duration.Milliseconds(),
		})
	}
	return failure
}

// errAs is a small errors.As wrapper kept local to avoid importing
// "errors" twice under an alias in callers above.
func errAs(err error, target **apperrors.FallbackFailure) bool {
	if f, ok := err.(*apperrors.FallbackFailure); ok {
		*target = f
		return true
	}
	return false
}
