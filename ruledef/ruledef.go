// Package ruledef turns user-authored YAML rule documents into rule.Rule
// values.
//
// A document lists rules with CUE expressions for the condition and for
// action values:
//
//	rules:
//	  - name: HighValueOrder
//	    description: applies the bulk discount
//	    priority: 10
//	    when: 'facts.orderTotal >= 1000'
//	    then:
//	      - set: discountApplied
//	        value: 'true'
//	      - unset: pendingReview
//
// Expressions are parsed once at load time — a document with a malformed
// expression never produces rules. Evaluation happens at fire time against
// a `facts` scope built from the current store; a reference to a missing
// or non-encodable fact surfaces as a condition or action error through
// the engine's hooks, it never crashes a run.
//
// The engines have no dependency on this package; any source of rule.Rule
// values works. This is the stock adapter for file-driven rules.
package ruledef

import "fmt"

// Document is the top-level YAML shape.
type Document struct {
	Rules []RuleDef `yaml:"rules"`
}

// RuleDef is one user-authored rule.
type RuleDef struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Priority    int         `yaml:"priority"`
	When        string      `yaml:"when"`
	Then        []ActionDef `yaml:"then"`
}

// ActionDef is one action step: exactly one of Set or Unset.
// Set binds the named fact to the evaluated Value expression; Unset
// removes the named fact.
type ActionDef struct {
	Set   string `yaml:"set,omitempty"`
	Value string `yaml:"value,omitempty"`
	Unset string `yaml:"unset,omitempty"`
}

// DefError reports a rule document that violates the ruledef contract.
type DefError struct {
	Rule    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *DefError) Error() string {
	if e.Rule != "" && e.Field != "" {
		return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Message)
	}
	if e.Rule != "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Message)
	}
	return e.Message
}
