package rule

import (
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// ValidateRule checks rule consistency and required fields.
// Returns error if rule is invalid.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	// Check required fields
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}

	if _, err := Compile(r.Pattern); err != nil {
		return fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
	}

	// Validate StructuralID matches computed value
	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	return nil
}

// Compile compiles a rule pattern the way the matcher does: RE2-compatible
// syntax first, falling back to the full regexp2 dialect.
func Compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, err
		}
	}
	return re, nil
}

// ExampleFailure describes an example that did not behave as declared.
type ExampleFailure struct {
	RuleID   string
	Example  string
	Negative bool // a negative example matched
}

func (f ExampleFailure) String() string {
	if f.Negative {
		return fmt.Sprintf("%s: negative example matched: %q", f.RuleID, f.Example)
	}
	return fmt.Sprintf("%s: example did not match: %q", f.RuleID, f.Example)
}

// CheckExamples runs a rule against its own examples and negative examples.
func CheckExamples(r *types.Rule) ([]ExampleFailure, error) {
	re, err := Compile(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
	}

	var failures []ExampleFailure
	for _, ex := range r.Examples {
		ok, err := re.MatchString(ex)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		if !ok {
			failures = append(failures, ExampleFailure{RuleID: r.ID, Example: ex})
		}
	}
	for _, ex := range r.NegativeExamples {
		ok, err := re.MatchString(ex)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		if ok {
			failures = append(failures, ExampleFailure{RuleID: r.ID, Example: ex, Negative: true})
		}
	}
	return failures, nil
}
