package rotation

import (
	"strconv"
	"strings"

	"rotabot/internal/week"
)

// FormatMessage renders the reminder text for an assignment.
//
// The assignment's special template wins over the caller's default
// template. Placeholders: {name} is the resolved member, {week} the
// numeric week-of-year.
func FormatMessage(defaultTemplate string, a Assignment, w week.ID) string {
	tpl := defaultTemplate
	if a.MessageTemplate != "" {
		tpl = a.MessageTemplate
	}
	r := strings.NewReplacer(
		"{name}", a.Member,
		"{week}", strconv.Itoa(w.Number()),
	)
	return r.Replace(tpl)
}
