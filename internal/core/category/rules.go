// Package category assigns item names to categories by keyword.
package category

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoices-tracker/constants"
)

//go:embed rules.schema.json
var rulesSchema []byte

// Rule maps one category label to lowercase keyword substrings.
type Rule struct {
	Name     string
	Keywords []string
}

// RuleSet is an ordered rule table; the first matching rule wins.
type RuleSet []Rule

// DefaultRules returns the built-in technology, fashion and home essentials table.
func DefaultRules() RuleSet {
	rules := make(RuleSet, 0, len(constants.DefaultKeywords))
	for _, c := range constants.DefaultCategories() {
		kws := constants.DefaultKeywords[c]
		rules = append(rules, Rule{Name: string(c), Keywords: append([]string(nil), kws...)})
	}
	return rules
}

// Labels returns the rule names in match order.
func (rs RuleSet) Labels() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

// LoadRules reads a rules file. An empty path yields DefaultRules.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category rules: %w", err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a YAML (or JSON) mapping of category name to keywords.
// Document order is the match order.
func ParseRules(data []byte) (RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse category rules: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("category rules: empty document")
	}
	root := doc.Content[0]

	var generic any
	if err := root.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	if err := validateRules(generic); err != nil {
		return nil, err
	}

	// schema guarantees a mapping of string lists
	rules := make(RuleSet, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var kws []string
		if err := root.Content[i+1].Decode(&kws); err != nil {
			return nil, fmt.Errorf("category %q: %w", root.Content[i].Value, err)
		}
		rules = append(rules, Rule{Name: root.Content[i].Value, Keywords: kws})
	}
	return rules, nil
}

func validateRules(v any) error {
	// yaml decodes into types the schema validator does not know; round trip through JSON
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("category rules: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("category rules: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(rulesSchema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("category rules do not match schema: %w", err)
	}
	return nil
}

func normalizeKeywords(kws []string) []string {
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
