package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/app"
	"github.com/tmoore-dev/reeltap/internal/cache"
	"github.com/tmoore-dev/reeltap/internal/config"
	"github.com/tmoore-dev/reeltap/internal/extractor"
	"github.com/tmoore-dev/reeltap/internal/fallback"
	"github.com/tmoore-dev/reeltap/internal/metrics"
	"github.com/tmoore-dev/reeltap/internal/profiles"
	"github.com/tmoore-dev/reeltap/internal/progress"

	"github.com/spf13/afero"

	"github.com/tmoore-dev/reeltap/internal/store"
)

type stubAdapter struct {
	fetchErr error
}

func (a stubAdapter) Probe(ctx context.Context, req extractor.ProbeRequest) (*extractor.ProbeResult, error) {
	return &extractor.ProbeResult{Title: "stub", Duration: 42, Formats: []extractor.Format{{FormatID: "1", Ext: "mp4"}}}, nil
}

func (a stubAdapter) Fetch(ctx context.Context, req extractor.FetchRequest) (*extractor.FetchedFile, error) {
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return &extractor.FetchedFile{Path: "/downloads/out.mp4", Size: 4, Ext: ".mp4", MIMEType: "video/mp4", SuggestedFilename: "out.mp4"}, nil
}

func newTestServer(t *testing.T, adapter extractor.Adapter) (*fiber.App, *app.Context) {
	t.Helper()

	cfg := config.Default()
	cfg.APIKey = "secret"

	probeCache, err := cache.NewProbeCache(8, time.Minute)
	require.NoError(t, err)

	controller := fallback.NewController(adapter, nil, probeCache)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/downloads/out.mp4", []byte("test"), 0o600))
	fileStore := store.New(fs, "/downloads", time.Hour)

	appCtx := &app.Context{
		Config:      cfg,
		Controller:  controller,
		Store:       fileStore,
		Progress:    progress.NewBroadcaster(),
		Metrics:     metrics.New(prometheus.NewRegistry()),
		DefaultPlan: []profiles.Profile{profiles.TV},
	}

	fapp := fiber.New()
	NewServer(nil, appCtx).SetupRoutes(fapp)

	return fapp, appCtx
}

func TestHealthEndpoint_RequiresNoAuth(t *testing.T) {
	fapp, _ := newTestServer(t, stubAdapter{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `"downloadDir"`)
}

func TestInfoEndpoint_RejectsMissingAPIKey(t *testing.T) {
	fapp, _ := newTestServer(t, stubAdapter{})

	req := httptest.NewRequest(http.MethodPost, "/api/info", nil)
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestInfoEndpoint_SucceedsWithAPIKey(t *testing.T) {
	fapp, _ := newTestServer(t, stubAdapter{})

	body := `{"url": "http://example.com/watch?v=abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")

	resp, err := fapp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "stub")
}

func TestInfoEndpoint_UnknownProfileIgnoredNotRejected(t *testing.T) {
	fapp, _ := newTestServer(t, stubAdapter{})

	body := `{"url": "http://example.com/watch?v=abc", "profile": "nonsense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")

	resp, err := fapp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDownloadEndpoint_StreamsBytesOnSuccess(t *testing.T) {
	fapp, appCtx := newTestServer(t, stubAdapter{})

	body := `{"url": "http://example.com/watch?v=abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")

	resp, err := fapp.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "out.mp4")

	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "test", string(b))

	_ = appCtx
}

func TestDownloadEndpoint_PermanentFailureReturnsAttempts(t *testing.T) {
	fapp, _ := newTestServer(t, stubAdapter{fetchErr: notFoundErr()})

	body := `{"url": "http://example.com/watch?v=abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")

	resp, err := fapp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "NotFound")
	assert.Contains(t, string(b), `"attempts"`)
}

func notFoundErr() error {
	return apperrors.New(apperrors.NotFound, "tv", "video not found", nil)
}
