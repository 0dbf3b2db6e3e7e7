package ruledef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// Load reads and compiles a YAML rule document from disk.
func Load(path string) ([]rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule document: %w", err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadFacts reads a YAML mapping of fact names to values into a store.
// A YAML null value is rejected; the store forbids nil values.
func LoadFacts(path string) (facts.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return facts.Store{}, fmt.Errorf("read facts file: %w", err)
	}
	return ParseFacts(data)
}

// ParseFacts builds a store from YAML mapping bytes.
func ParseFacts(data []byte) (facts.Store, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return facts.Store{}, fmt.Errorf("parse facts: %w", err)
	}

	store := facts.New()
	for name, value := range m {
		next, err := store.With(name, value)
		if err != nil {
			return facts.Store{}, fmt.Errorf("fact %q: %w", name, err)
		}
		store = next
	}
	return store, nil
}
