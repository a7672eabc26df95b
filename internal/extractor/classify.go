package extractor

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
)

// classify maps an external process's exit error and captured stderr
// into a Kind. It is the single place that reasons about the extractor
// binary's text output, so every other caller works only with Kind.
func classify(ctx context.Context, profile string, stderr string, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return apperrors.New(apperrors.Timeout, profile, "extractor process cancelled or timed out", ctx.Err())
	}

	lower := strings.ToLower(stderr)

	switch {
	case containsAny(lower, "sign in to confirm", "not a bot", "confirm you're not a bot"):
		return apperrors.New(apperrors.BotChallenge, profile, "bot challenge presented", err)
	case containsAny(lower, "video unavailable", "this video is unavailable"):
		return apperrors.New(apperrors.Unavailable, profile, "video unavailable", err)
	case containsAny(lower, "http error 429", "too many requests"):
		return apperrors.New(apperrors.Throttled, profile, "rate limited by upstream", err)
	case containsAny(lower, "private video", "sign in if you've been granted access", "members-only"):
		return apperrors.New(apperrors.AuthRequired, profile, "authentication required", err)
	case containsAny(lower, "video not found", "404"):
		return apperrors.New(apperrors.NotFound, profile, "video not found", err)
	case containsAny(lower, "available in your country", "blocked it in your country"):
		return apperrors.New(apperrors.GeoBlocked, profile, "geo-blocked", err)
	case containsAny(lower, "unsupported url", "no video formats found", "unable to extract"):
		return apperrors.New(apperrors.BadFormat, profile, "no usable format found", err)
	case containsAny(lower, "does not pass filter"):
		return apperrors.New(apperrors.TooLong, profile, "duration exceeds configured cap", err)
	case containsAny(lower, "--yes-playlist", "is a playlist", "contains only playlists"):
		return apperrors.New(apperrors.AmbiguousInput, profile, "url resolves to a playlist, not a single video", err)
	case containsAny(lower, "no space left on device"):
		return apperrors.New(apperrors.NoSpace, profile, "output destination is out of space", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return apperrors.New(apperrors.Internal, profile, "extractor process exited with error", err)
	}

	return apperrors.New(apperrors.Internal, profile, "extractor process failed", err)
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
