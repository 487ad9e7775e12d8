// Package strings holds whitespace and list normalization for free text
// returned by document extraction.
package strings

import (
	"strings"
)

// CollapseSpace trims s and folds every run of whitespace into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DedupeFold collapses whitespace in each element, drops empties and removes
// case-insensitive duplicates. The first spelling seen wins and order is kept.
//
//	DedupeFold([]string{" Birds ", "birds", "Road  noise", ""})
//	// []string{"Birds", "Road noise"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		collapsed := CollapseSpace(v)
		if collapsed == "" {
			continue
		}
		key := strings.ToLower(collapsed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, collapsed)
	}
	return result
}
