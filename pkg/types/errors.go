package types

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the scanning engine and the service around it.
var (
	// ErrInvalidRepositoryURL means the input did not name a GitHub owner/repo.
	ErrInvalidRepositoryURL = errors.New("invalid GitHub repository URL")

	// ErrCredentialUnavailable means no GitHub credential could be resolved.
	ErrCredentialUnavailable = errors.New("GitHub credentials unavailable")

	// ErrRepositoryUnreachable means repository metadata or the tree could
	// not be fetched (not found, private, or auth failure). Fatal for a scan.
	ErrRepositoryUnreachable = errors.New("repository not accessible")

	// ErrFileFetchFailed marks a single file that could not be fetched or
	// decoded. It is recovered inside the engine and never aborts a scan.
	ErrFileFetchFailed = errors.New("file fetch failed")

	// ErrMalformedRequest means the caller sent an unparsable request body.
	ErrMalformedRequest = errors.New("invalid request body")
)

// RemoteAPIError is a non-successful response from the GitHub API.
type RemoteAPIError struct {
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GitHub API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("GitHub API error: HTTP %d: %s", e.Status, e.Body)
}

// Unreachable wraps a remote failure so that it matches ErrRepositoryUnreachable
// while keeping the *RemoteAPIError reachable through errors.As.
func Unreachable(err error) error {
	return fmt.Errorf("%w: %w", ErrRepositoryUnreachable, err)
}
