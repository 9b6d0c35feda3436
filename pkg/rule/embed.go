package rule

import "embed"

// builtinRulesFS embeds the built-in rules directory.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
