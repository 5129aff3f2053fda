// Package filter decides whether a fetched vacancy actually concerns the
// topic a script searches for. The hh.ru full-text search is loose, so
// every collected item is re-checked against a set of phrase variants.
package filter

import "strings"

// DefaultVariants covers the grammatical inflections of "охрана труда"
// as they appear in vacancy titles and snippets.
var DefaultVariants = []string{
	"охрана труда",
	"охраны труда",
	"охране труда",
	"охраной труда",
}

// Matcher performs case-insensitive substring matching against a fixed
// list of phrase variants. It is pure: no network, no storage.
type Matcher struct {
	variants []string
}

// New builds a Matcher from the given phrase variants. Empty variants
// are dropped; with no variants left, the matcher falls back to
// DefaultVariants.
func New(variants ...string) *Matcher {
	folded := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			folded = append(folded, v)
		}
	}
	if len(folded) == 0 {
		for _, v := range DefaultVariants {
			folded = append(folded, strings.ToLower(v))
		}
	}
	return &Matcher{variants: folded}
}

// Matches reports whether any variant occurs in the combined title and
// description text, case-folded. The description may be empty.
func (m *Matcher) Matches(title, description string) bool {
	combined := strings.ToLower(title + " " + description)
	for _, v := range m.variants {
		if strings.Contains(combined, v) {
			return true
		}
	}
	return false
}
