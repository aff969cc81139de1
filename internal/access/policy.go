// Package access decides what a caller may see of the reveal record and
// whether the reveal flag may be switched on. Everything here is pure: the
// current time is always passed in.
package access

import (
	"errors"
	"strings"
	"time"
)

// DefaultOffsetMinutes is the venue's fixed offset from UTC (UTC-6, no DST).
const DefaultOffsetMinutes = -6 * 60

// ErrRevealNotYetPermitted is returned when an admin tries to reveal before
// the opening date has been reached.
var ErrRevealNotYetPermitted = errors.New("reveal not permitted before the countdown ends")

// Visibility is the outcome of the read policy.
type Visibility int

const (
	Hidden Visibility = iota
	Open
)

func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "hidden"
}

// State is the projection state shown to a caller. Masked only ever reaches
// admins looking at a record that is not yet revealed.
type State string

const (
	StateHidden State = "hidden"
	StateMasked State = "masked"
	StateOpen   State = "open"
)

var openingLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ResolveOpeningInstant interprets a zone-less local date string at a fixed
// offset from UTC. ok is false for empty or unparseable input. The host's
// local zone never takes part in the computation.
func ResolveOpeningInstant(s string, offsetMinutes int) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	zone := time.FixedZone("venue", offsetMinutes*60)
	for _, layout := range openingLayouts {
		if t, err := time.ParseInLocation(layout, s, zone); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidOpeningDate reports whether s is empty or parseable.
func ValidOpeningDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := ResolveOpeningInstant(s, DefaultOffsetMinutes)
	return ok
}

// Expired reports whether the countdown is over: no opening date, or now is at
// or past it. A date that cannot be parsed never counts as expired.
func Expired(openingDate string, now time.Time) bool {
	if strings.TrimSpace(openingDate) == "" {
		return true
	}
	at, ok := ResolveOpeningInstant(openingDate, DefaultOffsetMinutes)
	if !ok {
		return false
	}
	return !now.Before(at)
}

// Decide applies the read policy.
func Decide(isRevealed bool, openingDate string, isAdmin bool, now time.Time) Visibility {
	if !isRevealed {
		return Hidden
	}
	if Expired(openingDate, now) || isAdmin {
		return Open
	}
	return Hidden
}

// ProjectionState refines Decide for record projections: admins see Masked
// where everyone else sees Hidden.
func ProjectionState(isRevealed bool, openingDate string, isAdmin bool, now time.Time) State {
	if Decide(isRevealed, openingDate, isAdmin, now) == Open {
		return StateOpen
	}
	if isAdmin {
		return StateMasked
	}
	return StateHidden
}

// CanToggleReveal guards the reveal switch. Hiding again is always allowed.
func CanToggleReveal(isRevealed bool, openingDate string, now time.Time) error {
	if isRevealed {
		return nil
	}
	if !Expired(openingDate, now) {
		return ErrRevealNotYetPermitted
	}
	return nil
}
