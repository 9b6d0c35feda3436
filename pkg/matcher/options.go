package matcher

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultRuleTimeout bounds a single rule's run over one file.
const DefaultRuleTimeout = 5 * time.Second

// Options configures matching behavior
type Options struct {
	// RuleTimeout is the regexp2 match timeout applied to every rule.
	// A rule that exceeds it is skipped for that file and logged.
	RuleTimeout time.Duration

	Logger zerolog.Logger
}

// DefaultOptions returns the default options for the matcher
func DefaultOptions() Options {
	return Options{
		RuleTimeout: DefaultRuleTimeout,
		Logger:      zerolog.Nop(),
	}
}
