// Package strings provides string slice utilities.
package strings

import (
	"slices"
	"strings"
)

// Dedupe removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved.
//
// Example:
//
//	Dedupe([]string{"  Go ", "Rust", "Go", "", "  "})
//	// Returns: []string{"Go", "Rust"}
func Dedupe(values []string) []string {
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

// SortedUnique returns the distinct non-empty values in lexical order. The
// result is never nil, so it encodes as an empty JSON array.
func SortedUnique(values []string) []string {
	return SortedUniqueFunc(values, strings.Compare)
}

// SortedUniqueFunc is like SortedUnique but orders with cmp. Values cmp
// considers equal keep their first-seen order.
func SortedUniqueFunc(values []string, cmp func(a, b string) int) []string {
	out := Dedupe(values)
	if out == nil {
		out = []string{}
	}
	slices.SortStableFunc(out, cmp)
	return out
}
