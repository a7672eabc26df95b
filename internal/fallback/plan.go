// Package fallback drives an ordered sequence of extractor profile
// attempts for a single request, advancing on transient failures and
// stopping on permanent ones or first success.
package fallback

import "github.com/tmoore-dev/reeltap/internal/profiles"

// Plan is the ordered list of profiles a single request will try, in
// order, until one succeeds or a permanent failure stops the plan.
type Plan struct {
	Profiles []profiles.Profile
}

// NewPlan builds a Plan for one request: preferred (if it names a known
// profile) is placed first, the configured order follows with preferred
// and duplicates removed, and any profile whose Spec.RequiresCredentials
// is true is dropped unless credentialed is true. An unknown preferred
// profile is treated as if none were given, never as an error. The
// resulting plan must be non-empty.
func NewPlan(order []profiles.Profile, preferred profiles.Profile, credentialed bool) (*Plan, error) {
	seen := make(map[profiles.Profile]bool, len(order)+1)
	result := make([]profiles.Profile, 0, len(order)+1)

	add := func(p profiles.Profile) {
		if p == "" || seen[p] {
			return
		}
		spec, err := profiles.Lookup(p)
		if err != nil {
			return
		}
		if spec.RequiresCredentials && !credentialed {
			return
		}
		seen[p] = true
		result = append(result, p)
	}

	add(preferred)
	for _, p := range order {
		add(p)
	}

	if len(result) == 0 {
		return nil, errEmptyPlan
	}
	return &Plan{Profiles: result}, nil
}

var errEmptyPlan = planError("fallback: plan has no profiles")

type planError string

func (e planError) Error() string { return string(e) }
