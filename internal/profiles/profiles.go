// Package profiles enumerates the player-client profiles the fallback
// controller cycles through when extracting a video.
package profiles

import (
	"fmt"
	"log/slog"
)

// Profile is a tagged client impersonation the extractor binary can be
// told to use. It is a closed set: new profiles are added here, never
// inferred from a free-form string at the call site.
type Profile string

const (
	TV      Profile = "tv"
	IOS     Profile = "ios"
	Android Profile = "android"
	MWeb    Profile = "mweb"
	Web     Profile = "web"
	Cookies Profile = "cookies"
)

// All is the exhaustive set of known profiles, in no particular order.
var All = []Profile{TV, IOS, Android, MWeb, Web, Cookies}

// Spec describes a profile's extractor-facing behavior.
type Spec struct {
	Profile Profile
	// ClientArg is the value passed to the extractor binary's
	// --extractor-args "youtube:player_client=<ClientArg>" flag.
	ClientArg string
	// RequiresCredentials is true when this profile needs a cookie
	// file or other per-request credential material to function.
	RequiresCredentials bool
}

var registry = map[Profile]Spec{
	TV:      {Profile: TV, ClientArg: "tv"},
	IOS:     {Profile: IOS, ClientArg: "ios"},
	Android: {Profile: Android, ClientArg: "android"},
	MWeb:    {Profile: MWeb, ClientArg: "mweb"},
	Web:     {Profile: Web, ClientArg: "web"},
	Cookies: {Profile: Cookies, ClientArg: "web", RequiresCredentials: true},
}

// Lookup returns the Spec for a profile, or an error if it is unknown.
func Lookup(p Profile) (Spec, error) {
	spec, ok := registry[p]
	if !ok {
		return Spec{}, fmt.Errorf("profiles: unknown profile %q", p)
	}
	return spec, nil
}

// DefaultOrder is the canonical fallback order used when a request does
// not specify one: tv, ios, android, mweb, web, cookies. tv and ios are
// tried first because they are least likely to trigger a bot challenge;
// cookies is tried last because it depends on the server's credential
// material and is the most expensive attempt to prepare.
func DefaultOrder() []Profile {
	return []Profile{TV, IOS, Android, MWeb, Web, Cookies}
}

// ParseOrder converts a list of profile names into a validated ordered
// plan, skipping unknown names with a warning and collapsing duplicates
// to their first occurrence. An order left empty is an error.
func ParseOrder(names []string) ([]Profile, error) {
	seen := make(map[Profile]bool, len(names))
	order := make([]Profile, 0, len(names))

	for _, name := range names {
		p := Profile(name)
		if _, err := Lookup(p); err != nil {
			slog.Warn("profiles: ignoring unknown profile in configured order", "profile", name)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		order = append(order, p)
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("profiles: empty profile order")
	}

	return order, nil
}
