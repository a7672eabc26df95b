package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchArgs_IncludesDurationCapAndFormatSelector(t *testing.T) {
	a := NewExecAdapter("yt-dlp")
	args := a.fetchArgs(FetchRequest{
		URL:                "http://example.com/v",
		Profile:            "tv",
		FormatSelector:     "best",
		MaxDurationSeconds: 600,
		OutputDir:          "/tmp",
		OutputPrefix:       "abc",
	})

	assert.Contains(t, args, "--match-filter")
	assert.Contains(t, args, "duration<=600")
	assert.Contains(t, args, "-f")
	assert.Contains(t, args, "best")
}

func TestFetchArgs_OmitsCapFlagsWhenUnset(t *testing.T) {
	a := NewExecAdapter("yt-dlp")
	args := a.fetchArgs(FetchRequest{URL: "http://example.com/v", Profile: "tv", OutputDir: "/tmp", OutputPrefix: "abc"})

	assert.NotContains(t, args, "--match-filter")
	assert.NotContains(t, args, "-f")
}

func TestFetchArgs_IncludesCookieFile(t *testing.T) {
	a := NewExecAdapter("yt-dlp")
	args := a.fetchArgs(FetchRequest{URL: "http://example.com/v", Profile: "web", CookieFile: "/tmp/c.txt", OutputDir: "/tmp", OutputPrefix: "abc"})

	assert.Contains(t, args, "--cookies")
	assert.Contains(t, args, "/tmp/c.txt")
}

func TestMimeTypeFor_KnownAndUnknownExtensions(t *testing.T) {
	assert.Equal(t, "video/mp4", mimeTypeFor(".mp4"))
	assert.Equal(t, "application/octet-stream", mimeTypeFor(".nonsense-ext"))
}

func TestParseProgress_ParsesPercentageAndTotal(t *testing.T) {
	downloaded, total, ok := parseProgress("[download]  42.0% of ~10.00MiB")
	assert.True(t, ok)
	assert.Equal(t, int64(10*(1<<20)), total)
	assert.InDelta(t, 0.42*float64(total), float64(downloaded), 1<<16)
}

func TestParseProgress_IgnoresNonProgressLines(t *testing.T) {
	_, _, ok := parseProgress("[youtube] Extracting URL")
	assert.False(t, ok)
}

func TestParseDestination_MatchesDestinationAndAlreadyDownloaded(t *testing.T) {
	assert.Equal(t, "/tmp/out.mp4", parseDestination("[download] Destination: /tmp/out.mp4"))
	assert.Equal(t, "/tmp/out.mp4", parseDestination("[download] /tmp/out.mp4 has already been downloaded"))
	assert.Equal(t, "", parseDestination("[youtube] Extracting URL"))
}
