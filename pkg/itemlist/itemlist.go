// Package itemlist owns the stored representation of a purchase's item names:
// a single comma-joined text value.
package itemlist

import "strings"

// Separator joins item names in the stored column.
const Separator = ","

// Join encodes item names in order. Names must not contain Separator.
func Join(items []string) string {
	return strings.Join(items, Separator)
}

// Split decodes a stored value, trimming whitespace around each name and
// dropping empty segments.
func Split(stored string) []string {
	if strings.TrimSpace(stored) == "" {
		return []string{}
	}
	parts := strings.Split(stored, Separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Valid reports whether name can round-trip through Join and Split unchanged.
func Valid(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && trimmed == name && !strings.Contains(name, Separator)
}
