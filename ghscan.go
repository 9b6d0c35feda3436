// Package ghscan scans GitHub repositories for committed secrets.
//
// # Basic Usage
//
// Create a scanner with the builtin signatures and scan a repository:
//
//	s, err := ghscan.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	report, err := s.ScanRepository(ctx, "https://github.com/octo/demo",
//	    ghscan.Credential{Token: os.Getenv("GITHUB_TOKEN")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, f := range report.Results {
//	    fmt.Printf("%s: %s (%d)\n", f.File, f.RuleID, f.MatchCount)
//	}
//
// Local content can be checked without the GitHub API:
//
//	findings := s.ScanString("config.env", "API_KEY=...")
package ghscan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/matcher"
	"github.com/checkmygithub/ghscan/pkg/rule"
	"github.com/checkmygithub/ghscan/pkg/scanner"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// Re-exported so callers can import just this package.
type (
	// Finding reports that one rule matched one file.
	Finding = types.Finding

	// ScanReport is the result of one repository scan.
	ScanReport = types.ScanReport

	// Rule is a named secret-detection pattern.
	Rule = types.Rule

	// Credential authenticates GitHub API calls.
	Credential = credential.Credential

	Severity = types.Severity
)

const (
	SeverityHigh   = types.SeverityHigh
	SeverityMedium = types.SeverityMedium
)

// Scanner wraps the signature set, matcher and repository engine.
type Scanner struct {
	set     *rule.Set
	matcher *matcher.Matcher
	engine  *scanner.Scanner
	cache   *scanner.ContentCache
}

type scannerConfig struct {
	rules       []*types.Rule
	include     []string
	exclude     []string
	branch      string
	baseURL     string
	concurrency int
	ruleTimeout time.Duration
	cacheTTL    time.Duration
	cacheSize   uint64
	logger      zerolog.Logger
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithRules uses custom rules instead of the builtin signatures.
func WithRules(rules []*Rule) Option {
	return func(c *scannerConfig) {
		c.rules = rules
	}
}

// WithRuleFilter keeps only rules matching include and drops those
// matching exclude. Patterns are regular expressions over rule ID and name.
func WithRuleFilter(include, exclude []string) Option {
	return func(c *scannerConfig) {
		c.include = include
		c.exclude = exclude
	}
}

// WithBranch pins the branch instead of resolving the default branch.
func WithBranch(branch string) Option {
	return func(c *scannerConfig) {
		c.branch = branch
	}
}

// WithBaseURL points the scanner at a GitHub Enterprise or test API.
func WithBaseURL(url string) Option {
	return func(c *scannerConfig) {
		c.baseURL = url
	}
}

// WithConcurrency bounds parallel file fetches. Default is 8.
func WithConcurrency(n int) Option {
	return func(c *scannerConfig) {
		c.concurrency = n
	}
}

// WithRuleTimeout bounds one rule's run over one file.
func WithRuleTimeout(d time.Duration) Option {
	return func(c *scannerConfig) {
		c.ruleTimeout = d
	}
}

// WithContentCache keeps fetched blobs for ttl so repeated scans of
// unchanged files skip the content API.
func WithContentCache(ttl time.Duration, capacity uint64) Option {
	return func(c *scannerConfig) {
		c.cacheTTL = ttl
		c.cacheSize = capacity
	}
}

// WithLogger sets the logger used for per-file failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *scannerConfig) {
		c.logger = logger
	}
}

// NewScanner creates a Scanner. By default it uses the builtin signature
// set, resolves each repository's default branch and does not cache.
func NewScanner(opts ...Option) (*Scanner, error) {
	cfg := &scannerConfig{
		ruleTimeout: matcher.DefaultRuleTimeout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		set *rule.Set
		err error
	)
	if cfg.rules != nil {
		set, err = rule.NewSet(cfg.rules)
	} else {
		set, err = rule.LoadBuiltinSet()
	}
	if err != nil {
		return nil, err
	}

	if len(cfg.include) > 0 || len(cfg.exclude) > 0 {
		set, err = set.Filter(rule.FilterConfig{Include: cfg.include, Exclude: cfg.exclude})
		if err != nil {
			return nil, err
		}
	}

	m, err := matcher.New(set, matcher.Options{RuleTimeout: cfg.ruleTimeout, Logger: cfg.logger})
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}

	var cache *scanner.ContentCache
	if cfg.cacheTTL > 0 {
		cache = scanner.NewContentCache(cfg.cacheTTL, cfg.cacheSize)
	}

	engine := scanner.New(m, scanner.Options{
		Concurrency: cfg.concurrency,
		Branch:      cfg.branch,
		BaseURL:     cfg.baseURL,
		Cache:       cache,
		Logger:      cfg.logger,
	})

	return &Scanner{set: set, matcher: m, engine: engine, cache: cache}, nil
}

// ScanRepository scans the default branch of the repository at repoURL.
func (s *Scanner) ScanRepository(ctx context.Context, repoURL string, cred Credential) (*ScanReport, error) {
	return s.engine.ScanRepository(ctx, repoURL, cred)
}

// ScanBytes applies every rule to content and reports findings under path.
// The extension allow-list is not applied.
func (s *Scanner) ScanBytes(path string, content []byte) []Finding {
	return s.matcher.Match(path, content)
}

// ScanString is ScanBytes for string content.
func (s *Scanner) ScanString(path, content string) []Finding {
	return s.ScanBytes(path, []byte(content))
}

// RuleCount returns the number of loaded rules.
func (s *Scanner) RuleCount() int {
	return s.set.Len()
}

// Rules returns copies of the loaded rules in declaration order.
func (s *Scanner) Rules() []*Rule {
	return s.set.Rules()
}

// Close releases the content cache, if any.
func (s *Scanner) Close() error {
	s.cache.Close()
	return nil
}

// LoadBuiltinRules returns the builtin signatures, for inspection or
// to build a subset for WithRules.
func LoadBuiltinRules() ([]*Rule, error) {
	return rule.NewLoader().LoadBuiltinRules()
}

// LoadRulesFromFile loads rules from a YAML file or directory.
func LoadRulesFromFile(path string) ([]*Rule, error) {
	return rule.NewLoader().LoadPath(path)
}
