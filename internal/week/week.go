// Package week implements ISO week identifiers of the form "2025-W31"
// and the offset arithmetic the rotation engine indexes with.
package week

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ID identifies one ISO calendar week.
type ID struct {
	Year int
	Week int
}

// FormatError reports week text that does not match "YYYY-Www".
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid week identifier %q (want YYYY-Www, week 01-53)", e.Text)
}

var weekRe = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Parse parses a canonical week identifier such as "2025-W31".
// Week numbers outside [1,53] are rejected.
func Parse(s string) (ID, error) {
	m := weekRe.FindStringSubmatch(s)
	if m == nil {
		return ID{}, &FormatError{Text: s}
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return ID{}, &FormatError{Text: s}
	}
	wk, err := strconv.Atoi(m[2])
	if err != nil || wk < 1 || wk > 53 {
		return ID{}, &FormatError{Text: s}
	}
	return ID{Year: year, Week: wk}, nil
}

// String renders the canonical form, week zero-padded to two digits.
// Parse(id.String()) == id for every valid ID.
func (id ID) String() string {
	return fmt.Sprintf("%d-W%02d", id.Year, id.Week)
}

// Number returns the week-of-year component, used for message templates.
func (id ID) Number() int { return id.Week }

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool { return id.Year == 0 && id.Week == 0 }

// Offset returns the signed distance in weeks from one ID to another.
//
// The formula assumes every year has exactly 52 weeks. ISO years with 53
// weeks shift the result by one across that boundary; the rotation
// tolerates this (it only needs a stable linear ordering), and changing
// the formula would silently move everyone's slot in existing schedules.
func Offset(from, to ID) int {
	return (to.Year-from.Year)*52 + (to.Week - from.Week)
}

// Current returns the ISO week containing now as observed in loc.
func Current(now time.Time, loc *time.Location) ID {
	if loc != nil {
		now = now.In(loc)
	}
	y, w := now.ISOWeek()
	return ID{Year: y, Week: w}
}
