// Package tagset canonicalizes raw tag input before it reaches storage.
package tagset

import (
	"sort"
	"strings"
)

// Normalize turns a raw list of tag strings into the canonical set:
// trimmed, empty entries dropped, duplicates collapsed, sorted ascending.
// Normalizing an already-normalized set returns the same set. The result
// is never nil so it marshals as an empty JSON array.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
