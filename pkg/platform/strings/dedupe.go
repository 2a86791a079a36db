// Package strings normalises the delimited lists the gateway reads from
// configuration and query strings.
package strings

import (
	"strings"
)

// SplitList splits raw on any rune in seps, then trims and dedupes the parts.
//
//	SplitList("a@co.com; b@co.com,a@co.com", ",;")
//	// []string{"a@co.com", "b@co.com"}
func SplitList(raw, seps string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	return DedupeAndTrim(parts)
}

// Scopes normalises an OAuth scope string to its distinct space-separated
// values, in first-seen order.
func Scopes(raw string) []string {
	return DedupeAndTrim(strings.Fields(raw))
}

// DedupeAndTrim removes duplicates and empty strings, trimming whitespace from
// each element. Order is preserved. Matching is case-sensitive.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
