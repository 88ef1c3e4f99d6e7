// Package strings provides list canonicalization helpers for free-text
// collector fields.
package strings

import "strings"

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order of first occurrence is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// NormalizeList canonicalizes a comma-separated list field: entries are
// trimmed, deduplicated, and rejoined with ", ". Collectors repeat skills and
// metro stations across scrapes with inconsistent spacing.
func NormalizeList(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(DedupeAndTrim(strings.Split(s, ",")), ", ")
}
