// Package locator turns user-supplied GitHub URLs into repository references.
package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/checkmygithub/ghscan/pkg/types"
)

var (
	// repoPathRe finds the owner/repo segment anywhere in the input.
	repoPathRe = regexp.MustCompile(`github\.com/([^/\s?#]+)/([^/\s?#]+)`)

	// inboundRe is the stricter form accepted by the scan endpoint.
	inboundRe = regexp.MustCompile(`^https://github\.com/[\w-]+/[\w.-]+/?$`)
)

// Parse extracts the owner and repository name from a GitHub URL.
// A trailing slash and a ".git" suffix on the repository segment are removed,
// so ".../foo/bar", ".../foo/bar/" and ".../foo/bar.git" all yield foo/bar.
func Parse(rawURL string) (types.RepositoryRef, error) {
	m := repoPathRe.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return types.RepositoryRef{}, fmt.Errorf("%w: %q", types.ErrInvalidRepositoryURL, rawURL)
	}

	owner := m[1]
	repo := strings.TrimSuffix(m[2], ".git")
	if dotsOnly(owner) || dotsOnly(repo) {
		return types.RepositoryRef{}, fmt.Errorf("%w: %q", types.ErrInvalidRepositoryURL, rawURL)
	}

	return types.RepositoryRef{Owner: owner, Repo: repo}, nil
}

// ValidateURL checks the shape accepted from web clients:
// https://github.com/<owner>/<repo> with an optional trailing slash.
func ValidateURL(rawURL string) error {
	if !inboundRe.MatchString(rawURL) {
		return fmt.Errorf("%w: %q", types.ErrInvalidRepositoryURL, rawURL)
	}
	_, err := Parse(rawURL)
	return err
}

// dotsOnly reports names GitHub never assigns: empty, ".", ".." and the like.
// Passed to the API they would resolve as relative path segments.
func dotsOnly(name string) bool {
	return strings.Trim(name, ".") == ""
}

// URL returns the canonical web URL for ref.
func URL(ref types.RepositoryRef) string {
	return "https://github.com/" + ref.FullName()
}
