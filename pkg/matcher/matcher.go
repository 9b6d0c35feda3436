// Package matcher applies a rule set to file contents and reports
// per-rule match counts.
package matcher

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/checkmygithub/ghscan/pkg/prefilter"
	"github.com/checkmygithub/ghscan/pkg/rule"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// Matcher is immutable after New and safe for concurrent use.
type Matcher struct {
	rules     []*types.Rule
	compiled  map[string]*regexp2.Regexp // rule ID -> pattern
	prefilter *prefilter.Prefilter
	log       zerolog.Logger
}

// New compiles every rule in set.
func New(set *rule.Set, opts Options) (*Matcher, error) {
	if set == nil || set.Len() == 0 {
		return nil, fmt.Errorf("no rules provided")
	}
	if opts.RuleTimeout <= 0 {
		opts.RuleTimeout = DefaultRuleTimeout
	}

	rules := set.Rules()
	m := &Matcher{
		rules:     rules,
		compiled:  make(map[string]*regexp2.Regexp, len(rules)),
		prefilter: prefilter.New(rules),
		log:       opts.Logger,
	}

	for _, r := range rules {
		re, err := rule.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q for rule %s: %w", r.Pattern, r.ID, err)
		}
		re.MatchTimeout = opts.RuleTimeout
		m.compiled[r.ID] = re
	}

	return m, nil
}

// Rules returns the rules the matcher was built from, in order.
func (m *Matcher) Rules() []*types.Rule {
	return m.rules
}

// Match runs every candidate rule over content and returns one Finding per
// rule that matched at least once, in rule order. path is copied into each
// Finding unchanged.
func (m *Matcher) Match(path string, content []byte) []types.Finding {
	if len(content) == 0 {
		return nil
	}

	text := string(content)
	var findings []types.Finding

	for _, r := range m.prefilter.Filter(content) {
		n, err := m.count(r, text)
		if err != nil {
			m.log.Warn().Err(err).
				Str("rule", r.ID).
				Str("file", path).
				Msg("regex error, skipping rule for this file")
			continue
		}
		if n == 0 {
			continue
		}
		findings = append(findings, types.Finding{
			File:       path,
			RuleID:     r.Name,
			MatchCount: n,
			Severity:   r.Severity(),
		})
	}

	return findings
}

// count returns the number of non-overlapping matches of r in text.
// Presence-only rules stop at the first match.
func (m *Matcher) count(r *types.Rule, text string) (int, error) {
	re := m.compiled[r.ID]

	match, err := re.FindStringMatch(text)
	if err != nil {
		return 0, err
	}

	n := 0
	for match != nil {
		n++
		if r.PresenceOnly {
			break
		}
		match, err = re.FindNextMatch(match)
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}
