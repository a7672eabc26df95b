package fallback

import (
	"time"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
	"github.com/tmoore-dev/reeltap/internal/profiles"
)

// Attempt records the outcome of trying one profile within a Plan.
type Attempt struct {
	Profile  profiles.Profile
	Started  time.Time
	Duration time.Duration
	Err      error // nil on success
}

// Kind reports the classified error Kind, or "" if the attempt succeeded.
func (a Attempt) Kind() apperrors.Kind {
	if a.Err == nil {
		return ""
	}
	return apperrors.KindOf(a.Err)
}
