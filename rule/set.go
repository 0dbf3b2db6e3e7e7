package rule

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Set is an ordered collection of rules with name-based deduplication.
//
// Ordering: priority ascending, then name ascending byte-wise
// (case-sensitive). Deduplication: registering a rule whose name matches an
// existing entry under Unicode case folding replaces that entry. Ordering
// and deduplication intentionally disagree on case.
//
// Thread-safety: registration and removal may be called concurrently with
// each other and with Rules() snapshots (single-writer-many-reader). A
// firing run iterates the snapshot taken at its start, so registration
// during a run never affects that run.
type Set struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewSet builds a set containing the given rules.
func NewSet(rules ...Rule) *Set {
	s := &Set{}
	s.Register(rules...)
	return s
}

// foldName returns the case-folded form of a rule name, used only for
// replace/remove lookups, never for ordering.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// Register inserts rules, replacing any existing rule whose name matches
// case-insensitively, and restores sort order.
func (s *Set) Register(rules ...Rule) {
	if len(rules) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rules {
		folded := foldName(r.Name)
		replaced := false
		for i := range s.rules {
			if foldName(s.rules[i].Name) == folded {
				s.rules[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.rules = append(s.rules, r)
		}
	}
	sortRules(s.rules)
}

// Unregister removes the rule whose name matches r case-insensitively.
// No-op when absent.
func (s *Set) Unregister(r Rule) {
	s.UnregisterName(r.Name)
}

// UnregisterName removes the rule with the given name (case-insensitive
// lookup). No-op when absent.
func (s *Set) UnregisterName(name string) {
	folded := foldName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if foldName(s.rules[i].Name) == folded {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered rules.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// IsEmpty reports whether the set holds no rules.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Clear removes every rule.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
}

// Rules returns a sorted snapshot copy. Mutating the set afterwards does
// not affect the returned slice.
func (s *Set) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Rule, len(s.rules))
	copy(snapshot, s.rules)
	return snapshot
}

// sortRules orders rules by priority ascending, then name ascending
// byte-wise. The byte-wise tie-break keeps ordering deterministic even for
// names that collide under case folding.
func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return strings.Compare(rules[i].Name, rules[j].Name) < 0
	})
}
