package rotation

import (
	"fmt"

	"rotabot/internal/week"
)

// Resolve determines the member responsible for w.
//
// Precedence, first match wins:
//  1. vacation coverage: the first roster member (in roster order) on
//     vacation for w is replaced by the next roster member not also on
//     vacation that week
//  2. explicit override for w
//  3. default rotation: roster[offset(anchor, w) mod len(roster)]
//
// A special message registered for w decorates the result independently
// of which rule produced the member.
//
// Resolve is a pure function of its inputs: no I/O, no mutation, safe for
// concurrent use.
func Resolve(doc *Document, w week.ID) (Assignment, error) {
	if doc == nil || len(doc.Roster) == 0 {
		return Assignment{}, fmt.Errorf("resolve %s: %w", w, ErrEmptyRoster)
	}

	member, err := resolveMember(doc, w)
	if err != nil {
		return Assignment{}, err
	}

	return Assignment{
		Member:          member,
		MessageTemplate: doc.SpecialMessages[w],
	}, nil
}

func resolveMember(doc *Document, w week.ID) (string, error) {
	n := len(doc.Roster)

	// Vacation coverage. Scan the roster (not the vacations map) so the
	// outcome is deterministic regardless of document storage order.
	for i, name := range doc.Roster {
		if !onVacation(doc, name, w) {
			continue
		}
		// Walk forward from the vacationer's slot, skipping anyone who
		// is also out that week.
		for step := 1; step < n; step++ {
			cand := doc.Roster[(i+step)%n]
			if !onVacation(doc, cand, w) {
				return cand, nil
			}
		}
		return "", fmt.Errorf("resolve %s: every roster member is on vacation: %w", w, ErrNoCoverage)
	}

	// Explicit override, verbatim.
	if name, ok := doc.Overrides[w]; ok {
		return name, nil
	}

	// Default rotation with non-negative modulo, so weeks before the
	// anchor still land on a valid slot.
	idx := mod(week.Offset(doc.AnchorWeek, w), n)
	return doc.Roster[idx], nil
}

func onVacation(doc *Document, member string, w week.ID) bool {
	for _, vw := range doc.Vacations[member] {
		if vw == w {
			return true
		}
	}
	return false
}

func mod(x, n int) int {
	m := x % n
	if m < 0 {
		m += n
	}
	return m
}
