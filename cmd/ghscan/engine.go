package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/github"
	"github.com/checkmygithub/ghscan/pkg/matcher"
	"github.com/checkmygithub/ghscan/pkg/rule"
	"github.com/checkmygithub/ghscan/pkg/scanner"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// engineConfig holds the settings shared by scan and serve.
type engineConfig struct {
	Token         string
	ClientID      string
	ClientSecret  string
	CredentialURL string
	APIURL        string

	Branch      string
	Concurrency int
	Timeout     time.Duration
	Rate        float64
	Exclude     []string

	RulesPath    string
	RulesInclude string
	RulesExclude string
}

// addEngineFlags registers the engine flags on cmd.
func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("token", "", "GitHub token (or GITHUB_TOKEN env)")
	f.String("client-id", "", "GitHub OAuth app client ID (or GITHUB_CLIENT_ID env)")
	f.String("client-secret", "", "GitHub OAuth app client secret (or GITHUB_CLIENT_SECRET env)")
	f.String("credential-url", "", "URL serving {clientId, secret} JSON for the GitHub app credential")
	f.String("api-url", "", "GitHub API base URL (default https://api.github.com/)")
	f.String("branch", "", "Branch to scan (default: the repository's default branch)")
	f.Int("concurrency", scanner.DefaultConcurrency, "Files fetched in parallel")
	f.Duration("timeout", github.DefaultTimeout, "Timeout for each GitHub API call")
	f.Float64("rate", github.DefaultRequestsPerSecond, "Maximum GitHub API requests per second")
	f.StringSlice("exclude", nil, "Gitignore-style path patterns to skip (repeatable)")
	f.String("rules", "", "Path to custom rules file or directory (default: builtin rules)")
	f.String("rules-include", "", "Comma-separated regex patterns; only matching rule IDs or names are used")
	f.String("rules-exclude", "", "Comma-separated regex patterns; matching rule IDs or names are skipped")
}

func loadEngineConfig(v *viper.Viper) engineConfig {
	return engineConfig{
		Token:         v.GetString("token"),
		ClientID:      v.GetString("client-id"),
		ClientSecret:  v.GetString("client-secret"),
		CredentialURL: v.GetString("credential-url"),
		APIURL:        v.GetString("api-url"),
		Branch:        v.GetString("branch"),
		Concurrency:   v.GetInt("concurrency"),
		Timeout:       v.GetDuration("timeout"),
		Rate:          v.GetFloat64("rate"),
		Exclude:       v.GetStringSlice("exclude"),
		RulesPath:     v.GetString("rules"),
		RulesInclude:  v.GetString("rules-include"),
		RulesExclude:  v.GetString("rules-exclude"),
	}
}

// ruleSet loads builtin or custom rules and applies include/exclude filters.
func (c engineConfig) ruleSet() (*rule.Set, error) {
	var set *rule.Set
	if c.RulesPath != "" {
		rules, err := rule.NewLoader().LoadPath(c.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", c.RulesPath, err)
		}
		if set, err = rule.NewSet(rules); err != nil {
			return nil, err
		}
	} else {
		var err error
		if set, err = rule.LoadBuiltinSet(); err != nil {
			return nil, err
		}
	}

	if c.RulesInclude == "" && c.RulesExclude == "" {
		return set, nil
	}
	return set.Filter(rule.FilterConfig{
		Include: rule.ParsePatterns(c.RulesInclude),
		Exclude: rule.ParsePatterns(c.RulesExclude),
	})
}

// credentials returns explicit credentials when given, otherwise the
// environment, then the remote provisioning URL.
func (c engineConfig) credentials() credential.Provider {
	explicit := credential.Credential{Token: c.Token, ClientID: c.ClientID, ClientSecret: c.ClientSecret}
	if explicit.Valid() {
		return credential.Static(explicit)
	}

	chain := credential.Chain{credential.Env{}}
	if c.CredentialURL != "" {
		chain = append(chain, credential.NewRemote(c.CredentialURL, nil))
	}
	return chain
}

// newScanner builds the matcher and scanner for set.
func (c engineConfig) newScanner(set *rule.Set, cache *scanner.ContentCache) (*scanner.Scanner, error) {
	m, err := matcher.New(set, matcher.Options{
		RuleTimeout: matcher.DefaultRuleTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}

	return scanner.New(m, scanner.Options{
		Concurrency:       c.Concurrency,
		Branch:            c.Branch,
		Exclude:           c.Exclude,
		BaseURL:           c.APIURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.Rate,
		Cache:             cache,
		Logger:            logger,
	}), nil
}

// rulesByName indexes rules for output formatting.
func rulesByName(rules []*types.Rule) map[string]*types.Rule {
	out := make(map[string]*types.Rule, len(rules))
	for _, r := range rules {
		out[r.Name] = r
	}
	return out
}
