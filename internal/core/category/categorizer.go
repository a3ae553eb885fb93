package category

import (
	"strings"

	"github.com/joseph-ayodele/invoices-tracker/constants"
)

// Categorizer is safe for concurrent use; its rules never change after New.
type Categorizer struct {
	rules RuleSet
}

// New copies rules, lowercasing keywords. A nil or empty set falls back to DefaultRules.
func New(rules RuleSet) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	own := make(RuleSet, 0, len(rules))
	for _, r := range rules {
		own = append(own, Rule{Name: r.Name, Keywords: normalizeKeywords(r.Keywords)})
	}
	return &Categorizer{rules: own}
}

// Categorize returns the first rule whose keyword occurs in the lowercased
// name, or "uncategorized".
func (c *Categorizer) Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Name
			}
		}
	}
	return string(constants.Uncategorized)
}

// Labels lists every label Categorize can return, fallback last.
func (c *Categorizer) Labels() []string {
	return append(c.rules.Labels(), string(constants.Uncategorized))
}
