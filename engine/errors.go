package engine

import (
	"errors"
	"fmt"
)

// ErrNilRuleSet is returned by Fire and Check when the rule set is nil.
// It is detected before any rule is touched.
var ErrNilRuleSet = errors.New("rule set must not be nil")

// RunErrorCode categorizes failures surfaced during a firing run.
type RunErrorCode string

const (
	// ErrCodeCondition indicates a rule's condition callable failed.
	ErrCodeCondition RunErrorCode = "CONDITION_FAILED"

	// ErrCodeAction indicates one of a rule's actions failed.
	ErrCodeAction RunErrorCode = "ACTION_FAILED"

	// ErrCodeMaxPasses indicates a forward-chaining run hit its opt-in
	// pass bound while candidates remained.
	ErrCodeMaxPasses RunErrorCode = "MAX_PASSES_EXCEEDED"
)

// RunError wraps a condition or action failure with the rule it came from.
//
// Condition and action failures never escape Fire; they reach callers only
// through the OnEvaluateError and OnFailure hooks, wrapped in a RunError so
// observers can categorize them with errors.As.
type RunError struct {
	Code RunErrorCode
	Rule string
	Err  error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: rule %q: %v", e.Code, e.Rule, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

// Unwrap exposes the underlying failure for errors.Is/As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsConditionError reports whether err is a condition evaluation failure.
func IsConditionError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeCondition
}

// IsActionError reports whether err is an action execution failure.
func IsActionError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeAction
}

// IsMaxPassesError reports whether err is a forward-chaining pass-bound
// violation.
func IsMaxPassesError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeMaxPasses
}
