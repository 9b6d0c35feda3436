// Package prefilter narrows the rules worth running against a file by
// looking for each rule's literal keywords first.
package prefilter

import (
	"bytes"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
// Keywords are compared case-insensitively, so a hit is a necessary
// condition for both case-sensitive and (?i) patterns.
type Prefilter struct {
	rules        []*types.Rule
	keywords     []string         // lowercased keyword at each dictionary index
	keywordRules map[string][]int // keyword -> indexes into rules
	alwaysRun    []int            // rules without keywords

	mu      sync.Mutex // ahocorasick.Matcher keeps per-call state
	matcher *ahocorasick.Matcher
}

// New creates a prefilter from rules.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		rules:        rules,
		keywordRules: make(map[string][]int),
	}

	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.alwaysRun = append(pf.alwaysRun, i)
			continue
		}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if _, seen := pf.keywordRules[kw]; !seen {
				pf.keywords = append(pf.keywords, kw)
			}
			pf.keywordRules[kw] = append(pf.keywordRules[kw], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules that might match content (a keyword was found, or
// the rule declares no keywords), in their original order.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	selected := make([]bool, len(pf.rules))
	for _, i := range pf.alwaysRun {
		selected[i] = true
	}

	if pf.matcher != nil {
		lowered := bytes.ToLower(content)

		pf.mu.Lock()
		hits := pf.matcher.Match(lowered)
		pf.mu.Unlock()

		for _, hit := range hits {
			for _, i := range pf.keywordRules[pf.keywords[hit]] {
				selected[i] = true
			}
		}
	}

	result := make([]*types.Rule, 0, len(pf.rules))
	for i, ok := range selected {
		if ok {
			result = append(result, pf.rules[i])
		}
	}
	return result
}
