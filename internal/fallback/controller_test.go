package fallback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/extractor"
	"github.com/tmoore-dev/reeltap/internal/profiles"
)

// fakeAdapter lets tests script per-profile outcomes.
type fakeAdapter struct {
	probeResults map[string]error
	fetchResults map[string]error
	probeCalls   []string
	fetchCalls   []string
}

func (f *fakeAdapter) Probe(ctx context.Context, req extractor.ProbeRequest) (*extractor.ProbeResult, error) {
	f.probeCalls = append(f.probeCalls, req.Profile)
	if err := f.probeResults[req.Profile]; err != nil {
		return nil, err
	}
	return &extractor.ProbeResult{Title: "ok via " + req.Profile}, nil
}

func (f *fakeAdapter) Fetch(ctx context.Context, req extractor.FetchRequest) (*extractor.FetchedFile, error) {
	f.fetchCalls = append(f.fetchCalls, req.Profile)
	if err := f.fetchResults[req.Profile]; err != nil {
		return nil, err
	}
	return &extractor.FetchedFile{Path: "/tmp/out." + req.Profile}, nil
}

func TestRunProbe_AdvancesOnTransientFailure(t *testing.T) {
	adapter := &fakeAdapter{
		probeResults: map[string]error{
			"tv": apperrors.New(apperrors.BotChallenge, "tv", "blocked", nil),
		},
	}
	c := NewController(adapter, nil, nil)
	plan, err := NewPlan([]profiles.Profile{profiles.TV, profiles.IOS}, "", false)
	require.NoError(t, err)

	result, attempts, err := c.RunProbe(context.Background(), plan, "http://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "ok via ios", result.Title)
	assert.Len(t, attempts, 2)
	assert.Equal(t, profiles.TV, attempts[0].Profile)
	assert.Equal(t, apperrors.BotChallenge, attempts[0].Kind())
}

func TestRunProbe_StopsOnPermanentFailure(t *testing.T) {
	adapter := &fakeAdapter{
		probeResults: map[string]error{
			"tv": apperrors.New(apperrors.NotFound, "tv", "gone", nil),
		},
	}
	c := NewController(adapter, nil, nil)
	plan, err := NewPlan([]profiles.Profile{profiles.TV, profiles.IOS}, "", false)
	require.NoError(t, err)

	_, attempts, err := c.RunProbe(context.Background(), plan, "http://example.com/v")
	require.Error(t, err)
	assert.Len(t, attempts, 1, "must not try ios after a permanent failure")

	var failure *apperrors.FallbackFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, apperrors.NotFound, failure.LastKind())
}

func TestRunProbe_AllProfilesExhausted(t *testing.T) {
	adapter := &fakeAdapter{
		probeResults: map[string]error{
			"tv":  apperrors.New(apperrors.BotChallenge, "tv", "blocked", nil),
			"ios": apperrors.New(apperrors.Unavailable, "ios", "gone", nil),
		},
	}
	c := NewController(adapter, nil, nil)
	plan, err := NewPlan([]profiles.Profile{profiles.TV, profiles.IOS}, "", false)
	require.NoError(t, err)

	_, attempts, err := c.RunProbe(context.Background(), plan, "http://example.com/v")
	require.Error(t, err)
	assert.Len(t, attempts, 2)
}

// TestRunFetch_AuthRequiredWhenCredentialStoreEmpty covers the defensive
// path in acquireCredentials: FallbackPlan construction already drops
// credentialled profiles when the credential store is empty, so this
// plan is only reachable when credentialed was true at plan-build time
// (e.g. a caller building a Plan directly) but the controller's store
// has no material by the time the attempt actually runs.
func TestRunFetch_AuthRequiredWhenCredentialStoreEmpty(t *testing.T) {
	adapter := &fakeAdapter{}
	c := NewController(adapter, nil, nil)
	plan, err := NewPlan([]profiles.Profile{profiles.Cookies}, "", true)
	require.NoError(t, err)

	_, attempts, err := c.RunFetch(context.Background(), plan, "http://example.com/v", "/tmp", "job1", "", FetchCaps{}, nil)
	require.Error(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, apperrors.AuthRequired, attempts[0].Kind())
	assert.Empty(t, adapter.fetchCalls, "adapter must never be called without credential material")
}

func TestCredentialsAvailable_FalseWithNilStore(t *testing.T) {
	c := NewController(&fakeAdapter{}, nil, nil)
	assert.False(t, c.CredentialsAvailable())
}
