package ruledef

import (
	"context"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/parser"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// Parse compiles a YAML rule document into rules.
//
// Every expression is parsed here, once; the returned closures only
// evaluate. The whole document is rejected on the first contract
// violation (empty name, duplicate name, missing condition, malformed
// expression, action with neither or both of set/unset).
func Parse(data []byte) ([]rule.Rule, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule document: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, &DefError{Message: "document declares no rules"}
	}

	// One CUE context shared by every closure from this document.
	cctx := cuecontext.New()

	seen := make(map[string]string, len(doc.Rules))
	rules := make([]rule.Rule, 0, len(doc.Rules))
	for _, def := range doc.Rules {
		r, err := compileRule(cctx, def)
		if err != nil {
			return nil, err
		}
		// Mirror rule.Set replace semantics at load time: two rules
		// whose names collide case-insensitively are a mistake in a
		// single document, not a replacement.
		folded := foldKey(def.Name)
		if prior, dup := seen[folded]; dup {
			return nil, &DefError{
				Rule:    def.Name,
				Field:   "name",
				Message: fmt.Sprintf("collides with rule %q under case folding", prior),
			}
		}
		seen[folded] = def.Name
		rules = append(rules, r)
	}
	return rules, nil
}

// foldKey matches rule.Set's case-insensitive name lookup.
func foldKey(name string) string {
	return cases.Fold().String(name)
}

func compileRule(cctx *cue.Context, def RuleDef) (rule.Rule, error) {
	if def.Name == "" {
		return rule.Rule{}, &DefError{Field: "name", Message: "rule name must not be empty"}
	}
	if def.When == "" {
		return rule.Rule{}, &DefError{Rule: def.Name, Field: "when", Message: "condition expression is required"}
	}

	whenExpr, err := parser.ParseExpr(def.Name+"/when", def.When)
	if err != nil {
		return rule.Rule{}, &DefError{
			Rule:    def.Name,
			Field:   "when",
			Message: fmt.Sprintf("malformed expression: %v", err),
		}
	}

	actions := make([]rule.Action, 0, len(def.Then))
	for i, ad := range def.Then {
		act, err := compileAction(cctx, def.Name, i, ad)
		if err != nil {
			return rule.Rule{}, err
		}
		actions = append(actions, act)
	}

	return rule.Rule{
		Name:        def.Name,
		Description: def.Description,
		Priority:    def.Priority,
		When:        condition(cctx, def.Name, whenExpr),
		Then:        actions,
	}, nil
}

func compileAction(cctx *cue.Context, ruleName string, idx int, def ActionDef) (rule.Action, error) {
	field := fmt.Sprintf("then[%d]", idx)

	switch {
	case def.Set != "" && def.Unset != "":
		return nil, &DefError{Rule: ruleName, Field: field, Message: "action declares both set and unset"}

	case def.Unset != "":
		if def.Value != "" {
			return nil, &DefError{Rule: ruleName, Field: field, Message: "unset action must not carry a value"}
		}
		return rule.UnsetFact(def.Unset), nil

	case def.Set != "":
		if def.Value == "" {
			return nil, &DefError{Rule: ruleName, Field: field, Message: "set action requires a value expression"}
		}
		valueExpr, err := parser.ParseExpr(fmt.Sprintf("%s/%s", ruleName, field), def.Value)
		if err != nil {
			return nil, &DefError{
				Rule:    ruleName,
				Field:   field,
				Message: fmt.Sprintf("malformed value expression: %v", err),
			}
		}
		return setAction(cctx, ruleName, def.Set, valueExpr), nil

	default:
		return nil, &DefError{Rule: ruleName, Field: field, Message: "action declares neither set nor unset"}
	}
}

// condition evaluates a compiled when-expression against the facts scope.
func condition(cctx *cue.Context, ruleName string, expr ast.Expr) rule.Condition {
	return func(_ context.Context, f facts.Store) (bool, error) {
		scope, err := factsScope(cctx, f)
		if err != nil {
			return false, err
		}
		v := cctx.BuildExpr(expr, cue.Scope(scope), cue.InferBuiltins(true))
		if err := v.Err(); err != nil {
			return false, fmt.Errorf("rule %q: evaluate condition: %w", ruleName, err)
		}
		ok, err := v.Bool()
		if err != nil {
			return false, fmt.Errorf("rule %q: condition is not boolean: %w", ruleName, err)
		}
		return ok, nil
	}
}

// setAction evaluates a compiled value expression and binds the result.
func setAction(cctx *cue.Context, ruleName, factName string, expr ast.Expr) rule.Action {
	return func(_ context.Context, f facts.Store) (facts.Store, error) {
		scope, err := factsScope(cctx, f)
		if err != nil {
			return f, err
		}
		v := cctx.BuildExpr(expr, cue.Scope(scope), cue.InferBuiltins(true))
		if err := v.Err(); err != nil {
			return f, fmt.Errorf("rule %q: evaluate value for %q: %w", ruleName, factName, err)
		}
		var out any
		if err := v.Decode(&out); err != nil {
			return f, fmt.Errorf("rule %q: decode value for %q: %w", ruleName, factName, err)
		}
		return f.With(factName, out)
	}
}

// factsScope encodes the store as a `facts` struct for expression
// evaluation. Only CUE-encodable values (strings, bools, numbers, lists,
// maps) can participate; anything else fails the evaluating rule, not the
// run.
func factsScope(cctx *cue.Context, f facts.Store) (cue.Value, error) {
	m := make(map[string]any, f.Len())
	for k, v := range f.All() {
		m[k] = v
	}
	scope := cctx.Encode(map[string]any{"facts": m})
	if err := scope.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("encode facts: %w", err)
	}
	return scope, nil
}
