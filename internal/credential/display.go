package credential

import (
	"strings"
	"unicode"
)

// DisplayLabel turns an attribute name into a human readable label, e.g. "dateOfBirth"
// becomes "Date Of Birth". This is a presentation-only transform: it never touches
// stored attribute names, only the copy handed to callers.
func DisplayLabel(attribute string) string {
	if attribute == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(attribute) + 4)
	for i, r := range attribute {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DisplaySubject returns a presentation copy of a subject map with labeled keys.
// Values are shared, not copied; callers must treat them as read-only.
func DisplaySubject(subject map[string]any) map[string]any {
	display := make(map[string]any, len(subject))
	for k, v := range subject {
		display[DisplayLabel(k)] = v
	}
	return display
}
