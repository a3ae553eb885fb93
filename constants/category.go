package constants

import (
	"strings"
)

type Category string

const (
	Technology     Category = "technology"
	Fashion        Category = "fashion"
	HomeEssentials Category = "home essentials"
	Uncategorized  Category = "uncategorized"
)

// Unknown is the sentinel for text fields the extractors could not find.
const Unknown = "Unknown"

var defaultCategories = []Category{
	Technology,
	Fashion,
	HomeEssentials,
}

// DefaultKeywords is the built-in rule table; DefaultCategories gives its match order.
var DefaultKeywords = map[Category][]string{
	Technology:     {"computer", "pc", "desktop", "laptop", "intel", "nvidia"},
	Fashion:        {"shoes", "shirt", "jeans", "clothing"},
	HomeEssentials: {"mouse", "keyboard", "chair", "table"},
}

// DefaultCategories returns the built-in category labels in match order.
func DefaultCategories() []Category {
	out := make([]Category, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, 0, len(defaultCategories)+1)
	for _, cat := range defaultCategories {
		result = append(result, string(cat))
	}
	return append(result, string(Uncategorized))
}

// NormalizeLabel lowercases and trims a category label.
func NormalizeLabel(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
