// Package apperrors defines the closed error taxonomy shared by the
// extractor, fallback controller and API layers.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is a tagged classification of why an extraction attempt failed.
// Every non-nil ExtractError carries exactly one Kind, and every Kind
// below is handled explicitly wherever a switch dispatches on it.
type Kind string

const (
	BotChallenge        Kind = "BotChallenge"
	Unavailable         Kind = "Unavailable"
	Throttled           Kind = "Throttled"
	AuthRequired        Kind = "AuthRequired"
	NotFound            Kind = "NotFound"
	GeoBlocked          Kind = "GeoBlocked"
	TooLong             Kind = "TooLong"
	TooLarge            Kind = "TooLarge"
	BadFormat           Kind = "BadFormat"
	AmbiguousInput      Kind = "AmbiguousInput"
	NoProfilesAvailable Kind = "NoProfilesAvailable"
	NoSpace             Kind = "NoSpace"
	Timeout             Kind = "Timeout"
	Unauthorized        Kind = "Unauthorized"
	BadRequest          Kind = "BadRequest"
	Internal            Kind = "Internal"
)

// Class describes whether an error should advance the fallback plan to
// the next profile or stop the plan outright.
type Class int

const (
	// ClassTransient means the failure is specific to the profile that
	// produced it; the fallback controller should try the next one.
	ClassTransient Class = iota
	// ClassPermanent means retrying with a different profile would not
	// help; the fallback controller should stop immediately.
	ClassPermanent
)

// String renders a Class as the wire-level "outcome" string used in an
// AttemptRecord: "transient" or "permanent".
func (c Class) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// classOf reports the fallback class for each Kind. This switch is the
// single source of truth for transient-vs-permanent classification and
// must stay exhaustive over Kind.
func classOf(k Kind) Class {
	switch k {
	case BotChallenge, Unavailable, Throttled, AuthRequired, Timeout:
		return ClassTransient
	case NotFound, GeoBlocked, TooLong, TooLarge, BadFormat, AmbiguousInput,
		NoProfilesAvailable, NoSpace, Unauthorized, BadRequest, Internal:
		return ClassPermanent
	default:
		return ClassPermanent
	}
}

// ExtractError is the error type returned by the extractor adapter and
// propagated through the fallback controller up to the API layer.
type ExtractError struct {
	Kind    Kind
	Profile string // profile in use when the error occurred, if any
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Profile != "" {
		return fmt.Sprintf("%s (profile=%s): %s", e.Kind, e.Profile, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparisons against a bare *ExtractError with
// only Kind populated, e.g. errors.Is(err, &ExtractError{Kind: NotFound}).
func (e *ExtractError) Is(target error) bool {
	var t *ExtractError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an ExtractError for the given kind.
func New(kind Kind, profile, message string, cause error) *ExtractError {
	return &ExtractError{Kind: kind, Profile: profile, Message: message, Cause: cause}
}

// ClassOf reports whether err (if an *ExtractError) is transient or
// permanent with respect to fallback-plan advancement. Non-ExtractError
// values are treated as permanent, since the controller has no basis to
// classify them.
func ClassOf(err error) Class {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return classOf(ee.Kind)
	}
	return ClassPermanent
}

// ClassOfKind exposes classOf for callers that only have a bare Kind to
// hand, e.g. rendering an AttemptError's outcome on the wire.
func ClassOfKind(k Kind) Class {
	return classOf(k)
}

// KindOf extracts the Kind from err, returning Internal for anything
// that isn't an *ExtractError.
func KindOf(err error) Kind {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return Internal
}

// FallbackFailure is returned by the fallback controller when no profile
// in the plan succeeded, whether the plan ran out of profiles or a
// permanent failure stopped it early. It carries the
// per-profile attempt errors so the API layer can report a useful
// summary without leaking extractor internals.
type FallbackFailure struct {
	Attempts []AttemptError
}

// AttemptError records the outcome of one profile in a fallback plan.
type AttemptError struct {
	Profile   string
	Kind      Kind
	Message   string
	ElapsedMs int64
}

func (f *FallbackFailure) Error() string {
	if len(f.Attempts) == 0 {
		return "fallback plan exhausted with no attempts recorded"
	}
	last := f.Attempts[len(f.Attempts)-1]
	return fmt.Sprintf("fallback plan exhausted after %d attempt(s), last: %s (%s): %s",
		len(f.Attempts), last.Profile, last.Kind, last.Message)
}

// LastKind returns the Kind of the final attempt, or Internal if there
// were no attempts.
func (f *FallbackFailure) LastKind() Kind {
	if len(f.Attempts) == 0 {
		return Internal
	}
	return f.Attempts[len(f.Attempts)-1].Kind
}
