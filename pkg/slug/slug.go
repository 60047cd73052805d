// Package slug normalizes free-form labels such as journal tags.
package slug

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLen bounds a generated slug, in bytes.
const MaxLen = 50

// Generate lowercases name and collapses every run of characters that are not
// letters or digits into a single hyphen, trimming hyphens at both ends.
//
// Examples:
//   - "Thai Food" → "thai-food"
//   - "  Date   Night!! " → "date-night"
//   - "Café" → "café"
func Generate(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	s := b.String()
	if len(s) > MaxLen {
		s = strings.TrimRight(truncate(s, MaxLen), "-")
	}
	return s
}

// Set slugs every entry of names, drops empties and duplicates, and returns
// the result sorted. It never returns nil.
func Set(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if s := Generate(n); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
