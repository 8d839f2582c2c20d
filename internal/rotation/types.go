// Package rotation resolves which roster member is responsible for a
// given week: vacation coverage first, then explicit overrides, then the
// cyclic default rotation anchored at a fixed week.
package rotation

import (
	"errors"

	"rotabot/internal/week"
)

var (
	// ErrEmptyRoster means the document has no rotation members at all.
	ErrEmptyRoster = errors.New("rotation roster is empty")

	// ErrNoCoverage means every roster member is on vacation for the
	// requested week, so nobody can cover.
	ErrNoCoverage = errors.New("no coverage available")
)

// Document is the schedule aggregate the engine resolves against.
//
// It is read-only to the engine: Resolve never mutates it, and edits
// happen out-of-band (the caller reloads the document per invocation).
type Document struct {
	// Roster is the ordered rotation. Names must be unique within it.
	Roster []string

	// AnchorWeek marks roster index 0.
	AnchorWeek week.ID

	// Overrides replaces the computed assignee for specific weeks.
	// Values are taken verbatim; they need not appear in Roster.
	Overrides map[week.ID]string

	// Vacations lists the weeks each member is unavailable.
	Vacations map[string][]week.ID

	// SpecialMessages decorates specific weeks with a custom message
	// template ({name} and {week} placeholders).
	SpecialMessages map[week.ID]string
}

// Assignment is the resolved output for one week.
type Assignment struct {
	Member string

	// MessageTemplate is the week's special message, if any. Empty means
	// the caller should use its own default template.
	MessageTemplate string
}
