package rule

import (
	"fmt"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// Set is an immutable, ordered collection of validated rules.
// Build one at startup and pass it to the matcher explicitly.
type Set struct {
	rules []*types.Rule
}

// NewSet validates rules and takes a private copy of them.
// Rule IDs and rule names must both be unique within a set.
func NewSet(rules []*types.Rule) (*Set, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule set is empty")
	}

	ids := make(map[string]bool, len(rules))
	names := make(map[string]bool, len(rules))
	copied := make([]*types.Rule, 0, len(rules))

	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			return nil, err
		}
		if ids[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID: %s", r.ID)
		}
		if names[r.Name] {
			return nil, fmt.Errorf("duplicate rule name: %s", r.Name)
		}
		ids[r.ID] = true
		names[r.Name] = true
		copied = append(copied, cloneRule(r))
	}

	return &Set{rules: copied}, nil
}

// LoadBuiltinSet loads and validates the embedded rules.
func LoadBuiltinSet() (*Set, error) {
	rules, err := NewLoader().LoadBuiltinRules()
	if err != nil {
		return nil, fmt.Errorf("loading builtin rules: %w", err)
	}
	return NewSet(rules)
}

// Rules returns copies of the rules in declaration order.
func (s *Set) Rules() []*types.Rule {
	out := make([]*types.Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Filter returns a new Set restricted by include/exclude patterns.
func (s *Set) Filter(cfg FilterConfig) (*Set, error) {
	filtered, err := Filter(s.Rules(), cfg)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("rule filter excluded every rule")
	}
	return &Set{rules: filtered}, nil
}

func cloneRule(r *types.Rule) *types.Rule {
	c := *r
	c.Keywords = append([]string(nil), r.Keywords...)
	c.Examples = append([]string(nil), r.Examples...)
	c.NegativeExamples = append([]string(nil), r.NegativeExamples...)
	c.References = append([]string(nil), r.References...)
	return &c
}
