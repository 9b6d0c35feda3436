package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// Rule is a named secret signature with pattern and metadata.
type Rule struct {
	ID               string   // e.g., "ghscan.aws.1"
	Name             string   // declared name, reported as a finding's rule ID
	Pattern          string   // regex pattern
	StructuralID     string   // SHA-1 of pattern (computed)
	Description      string   // optional
	PresenceOnly     bool     // count at most one match per file
	Examples         []string // positive test cases
	NegativeExamples []string // negative test cases
	References       []string // documentation URLs
	Keywords         []string // keywords for Aho-Corasick prefiltering
}

// namedGroupRe matches named capture groups like (?P<name>...) so they hash
// the same as plain unnamed groups.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[^>]+>`)

// ComputeStructuralID computes SHA-1 of pattern, normalizing named capture
// groups to unnamed groups.
func (r *Rule) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(r.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// Severity classifies findings produced by this rule.
func (r *Rule) Severity() Severity {
	return SeverityForRuleName(r.Name)
}
