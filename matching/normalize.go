// Package matching implements the normalization and matching engine for the
// reference drug registry. It classifies raw dosage-form text into a
// structured form (base form, release type, administration routes), brings
// free-text user input into the same canonical vocabulary, and decides which
// registry rows satisfy a query.
package matching

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns, initialized once and never mutated at runtime.
var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	compactRun    = regexp.MustCompile(`[\s,;]+`)
)

// NormalizeText canonicalizes a text value for comparison: NBSP becomes a
// regular space, ё folds to е, the result is trimmed, lowercased and all
// whitespace runs collapse to a single space. Registry text and user text
// go through the same function, otherwise comparisons would be meaningless.
func NormalizeText(value string) string {
	if value == "" {
		return ""
	}
	text := strings.ReplaceAll(value, " ", " ")
	text = strings.ReplaceAll(text, "ё", "е")
	text = strings.ReplaceAll(text, "Ё", "Е")
	text = strings.ToLower(strings.TrimSpace(text))
	return whitespaceRun.ReplaceAllString(text, " ")
}

// NormalizeCompact is NormalizeText with all whitespace and list separators
// stripped. Used only for dosage comparison, where "500 mg" and "500mg"
// must be treated as the same strength.
func NormalizeCompact(value string) string {
	return compactRun.ReplaceAllString(NormalizeText(value), "")
}
