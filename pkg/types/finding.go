package types

import "strings"

// Severity is the coarse risk class attached to a finding.
// It is a best-effort label derived from the rule name.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// highSeverityMarkers are matched case-sensitively against rule names.
var highSeverityMarkers = []string{"Private Key", "Secret", "Token"}

// SeverityForRuleName returns HIGH when the name mentions a private key,
// secret or token, and MEDIUM otherwise.
func SeverityForRuleName(name string) Severity {
	for _, marker := range highSeverityMarkers {
		if strings.Contains(name, marker) {
			return SeverityHigh
		}
	}
	return SeverityMedium
}

// Finding reports that one rule matched one file.
// There is exactly one Finding per (file, rule) pair with at least one match.
type Finding struct {
	File       string   `json:"file"`
	RuleID     string   `json:"ruleID"`
	MatchCount int      `json:"matches"`
	Severity   Severity `json:"severity"`
}
