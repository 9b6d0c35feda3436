// Package filter selects which tree entries are worth scanning.
package filter

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// DefaultExtensions is the allow-list of scannable file suffixes.
var DefaultExtensions = []string{
	".js", ".ts", ".json", ".yml", ".yaml", ".env", ".txt", ".md", ".jsx", ".tsx",
}

// Filter keeps blob entries whose path ends with an allowed extension and
// is not excluded. It holds no mutable state after New.
type Filter struct {
	extensions []string
	exclude    *ignore.GitIgnore
}

// Config for building a Filter.
type Config struct {
	// Extensions overrides DefaultExtensions when non-empty.
	Extensions []string

	// Exclude holds gitignore-style patterns; matching paths are dropped.
	Exclude []string
}

// New builds a Filter from cfg.
func New(cfg Config) *Filter {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	f := &Filter{extensions: make([]string, 0, len(exts))}
	for _, ext := range exts {
		f.extensions = append(f.extensions, strings.ToLower(ext))
	}
	if len(cfg.Exclude) > 0 {
		f.exclude = ignore.CompileIgnoreLines(cfg.Exclude...)
	}
	return f
}

// Default returns a Filter with the default allow-list and no exclusions.
func Default() *Filter {
	return New(Config{})
}

// Keep reports whether a single entry should be scanned.
func (f *Filter) Keep(e types.TreeEntry) bool {
	if !e.IsBlob() {
		return false
	}
	if f.exclude != nil && f.exclude.MatchesPath(e.Path) {
		return false
	}

	lower := strings.ToLower(e.Path)
	for _, ext := range f.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Apply returns the kept entries in their original order.
func (f *Filter) Apply(entries []types.TreeEntry) []types.TreeEntry {
	kept := make([]types.TreeEntry, 0, len(entries))
	for _, e := range entries {
		if f.Keep(e) {
			kept = append(kept, e)
		}
	}
	return kept
}
