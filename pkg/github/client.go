// Package github is a thin, rate-limited GitHub REST client covering the
// calls a repository scan needs: metadata, the recursive tree, and file
// contents.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// Defaults for Config fields left at zero.
const (
	DefaultTimeout           = 15 * time.Second
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 8
	UserAgent                = "ghscan"
)

// Config configures a Client.
type Config struct {
	Credential credential.Credential

	// BaseURL overrides https://api.github.com/ (tests, GitHub Enterprise).
	BaseURL string

	// Timeout bounds each API call.
	Timeout time.Duration

	// RequestsPerSecond and Burst pace every outbound call made by the client.
	// They are ignored when Limiter is set.
	RequestsPerSecond float64
	Burst             int

	// Limiter is shared by every client built with it, so the pace holds
	// across concurrent scans.
	Limiter *rate.Limiter

	// Transport is the underlying round tripper (default http.DefaultTransport).
	Transport http.RoundTripper
}

// Client wraps go-github with per-call timeouts and request pacing.
type Client struct {
	client  *github.Client
	timeout time.Duration
}

// New creates an authenticated client. Tokens are sent as bearer
// credentials; a client id/secret pair is sent as HTTP Basic auth.
func New(cfg Config) (*Client, error) {
	if !cfg.Credential.Valid() {
		return nil, fmt.Errorf("%w: GitHub credential is required", types.ErrCredentialUnavailable)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	limited := &rateLimitedTransport{base: base, limiter: limiter}

	var httpClient *http.Client
	if cfg.Credential.IsBasic() {
		tp := &github.BasicAuthTransport{
			Username:  cfg.Credential.ClientID,
			Password:  cfg.Credential.ClientSecret,
			Transport: limited,
		}
		httpClient = tp.Client()
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Credential.Token})
		httpClient = &http.Client{Transport: &oauth2.Transport{Source: ts, Base: limited}}
	}

	client := github.NewClient(httpClient)
	client.UserAgent = UserAgent

	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{client: client, timeout: cfg.Timeout}, nil
}

// Repository fetches repository metadata, including the default branch.
func (c *Client) Repository(ctx context.Context, ref types.RepositoryRef) (*types.RepositoryInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	repo, _, err := c.client.Repositories.Get(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, types.Unreachable(apiError(err))
	}

	visibility := repo.GetVisibility()
	if visibility == "" {
		visibility = "public"
		if repo.GetPrivate() {
			visibility = "private"
		}
	}

	return &types.RepositoryInfo{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		Visibility:    visibility,
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

// Tree fetches the recursive tree of branch in a single request.
func (c *Client) Tree(ctx context.Context, ref types.RepositoryRef, branch string) (*types.Tree, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tree, _, err := c.client.Git.GetTree(ctx, ref.Owner, ref.Repo, branch, true)
	if err != nil {
		return nil, types.Unreachable(apiError(err))
	}

	out := &types.Tree{
		Branch:    branch,
		SHA:       tree.GetSHA(),
		Truncated: tree.GetTruncated(),
		Entries:   make([]types.TreeEntry, 0, len(tree.Entries)),
	}
	for _, entry := range tree.Entries {
		out.Entries = append(out.Entries, types.TreeEntry{
			Path: entry.GetPath(),
			Type: entry.GetType(),
			SHA:  entry.GetSHA(),
			Size: entry.GetSize(),
		})
	}
	return out, nil
}

// Content fetches and decodes one file at branch. Every failure wraps
// types.ErrFileFetchFailed.
func (c *Client) Content(ctx context.Context, ref types.RepositoryRef, branch, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := &github.RepositoryContentGetOptions{Ref: branch}
	file, _, _, err := c.client.Repositories.GetContents(ctx, ref.Owner, ref.Repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFileFetchFailed, path, apiError(err))
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s: path is a directory", types.ErrFileFetchFailed, path)
	}

	// GetContent rejects encoding "none" (files over 1 MB) but passes a
	// missing encoding through as raw text.
	if file.GetEncoding() == "" {
		return nil, fmt.Errorf("%w: %s: missing content encoding", types.ErrFileFetchFailed, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFileFetchFailed, path, err)
	}
	return []byte(content), nil
}

// apiError converts go-github response errors into *types.RemoteAPIError.
func apiError(err error) error {
	var resp *http.Response
	var message string

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &errResp):
		resp, message = errResp.Response, errResp.Message
	case errors.As(err, &rateErr):
		resp, message = rateErr.Response, rateErr.Message
	case errors.As(err, &abuseErr):
		resp, message = abuseErr.Response, abuseErr.Message
	default:
		return err
	}
	if resp == nil {
		return err
	}

	body := message
	if body == "" && resp.Body != nil {
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			body = string(data)
		}
	}
	return &types.RemoteAPIError{Status: resp.StatusCode, Body: body}
}
