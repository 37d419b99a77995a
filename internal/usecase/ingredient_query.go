package usecase

import (
	"regexp"
	"strings"
)

// Compiled patterns for ingredient query cleanup
var (
	ingredientSeparatorPattern = regexp.MustCompile(`\s*,\s*`)
	innerSpacePattern          = regexp.MustCompile(`\s+`)
)

// ParseIngredientQuery splits a user-typed ingredient query on commas.
// Items are trimmed, inner whitespace is collapsed and empty items are
// dropped. Case is preserved.
func ParseIngredientQuery(query string) []string {
	parts := ingredientSeparatorPattern.Split(strings.TrimSpace(query), -1)

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = innerSpacePattern.ReplaceAllString(strings.TrimSpace(part), " ")
		if part == "" {
			continue
		}
		items = append(items, part)
	}
	return items
}

// FormatIngredientQuery joins ingredients into the comma separated form the
// remote catalog expects.
func FormatIngredientQuery(items []string) string {
	return strings.Join(items, ",")
}
