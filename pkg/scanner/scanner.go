// Package scanner runs a full repository scan: locate, resolve the branch,
// list the tree, filter, fetch and match files with bounded parallelism,
// and aggregate the results into a report.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/filter"
	"github.com/checkmygithub/ghscan/pkg/github"
	"github.com/checkmygithub/ghscan/pkg/locator"
	"github.com/checkmygithub/ghscan/pkg/matcher"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// Name is reported in ScanReport.Scanner.
const Name = "TruffleHog-compatible patterns"

// DefaultConcurrency is the number of files fetched in parallel.
const DefaultConcurrency = 8

// DefaultBranch is used when repository metadata names no default branch.
const DefaultBranch = "main"

// API is the subset of the GitHub REST API a scan needs.
type API interface {
	Repository(ctx context.Context, ref types.RepositoryRef) (*types.RepositoryInfo, error)
	Tree(ctx context.Context, ref types.RepositoryRef, branch string) (*types.Tree, error)
	Content(ctx context.Context, ref types.RepositoryRef, branch, path string) ([]byte, error)
}

// ClientFactory builds an API client for one scan's credential.
type ClientFactory func(cred credential.Credential) (API, error)

// Options configures a Scanner. Zero values select defaults.
type Options struct {
	// Concurrency bounds parallel content fetches.
	Concurrency int

	// Branch pins the branch to scan and skips default-branch resolution.
	Branch string

	// Exclude holds gitignore-style path patterns to skip.
	Exclude []string

	// BaseURL, Timeout and RequestsPerSecond configure the default client.
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64

	// Cache, when set, is consulted before fetching a blob.
	Cache *ContentCache

	// NewClient overrides how the GitHub client is built.
	NewClient ClientFactory

	Logger zerolog.Logger
}

// Scanner is safe for concurrent use; each call to ScanRepository is
// independent and shares nothing but the matcher, the request limiter and
// the optional cache.
type Scanner struct {
	matcher *matcher.Matcher
	filter  *filter.Filter
	opts    Options
	log     zerolog.Logger
}

// New creates a Scanner around a prepared matcher.
func New(m *matcher.Matcher, opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.NewClient == nil {
		opts.NewClient = defaultClientFactory(opts)
	}
	return &Scanner{
		matcher: m,
		filter:  filter.New(filter.Config{Exclude: opts.Exclude}),
		opts:    opts,
		log:     opts.Logger,
	}
}

// defaultClientFactory builds one client per scan; all of them wait on
// the same limiter so RequestsPerSecond bounds the Scanner as a whole.
func defaultClientFactory(opts Options) ClientFactory {
	limiter := github.NewLimiter(opts.RequestsPerSecond, opts.Concurrency)
	return func(cred credential.Credential) (API, error) {
		return github.New(github.Config{
			Credential: cred,
			BaseURL:    opts.BaseURL,
			Timeout:    opts.Timeout,
			Limiter:    limiter,
		})
	}
}

// ScanRepository scans the repository named by repoURL.
//
// Fatal errors (invalid URL, credential, metadata or tree failure,
// cancellation) return no report. Individual file failures are logged,
// counted in FailedFiles, and do not stop the scan.
func (s *Scanner) ScanRepository(ctx context.Context, repoURL string, cred credential.Credential) (*types.ScanReport, error) {
	ref, err := locator.Parse(repoURL)
	if err != nil {
		return nil, err
	}

	api, err := s.opts.NewClient(cred)
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("repo", ref.FullName()).Logger()
	start := time.Now()

	var info *types.RepositoryInfo
	branch := s.opts.Branch
	if branch == "" {
		info, err = api.Repository(ctx, ref)
		if err != nil {
			return nil, fatal(ctx, err)
		}
		branch = info.DefaultBranch
		if branch == "" {
			branch = DefaultBranch
		}
	}
	log = log.With().Str("branch", branch).Logger()

	tree, err := api.Tree(ctx, ref, branch)
	if err != nil {
		return nil, fatal(ctx, err)
	}
	if tree.Truncated {
		log.Warn().Int("entries", len(tree.Entries)).Msg("repository tree is truncated, scanning listed entries only")
	}

	candidates := s.filter.Apply(tree.Entries)
	log.Debug().
		Int("entries", len(tree.Entries)).
		Int("candidates", len(candidates)).
		Msg("tree filtered")

	agg := NewAggregator(len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, entry := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			data, err := s.fetch(gctx, api, ref, branch, entry)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("file", entry.Path).Msg("skipping file")
				agg.Fail(i)
				return nil
			}
			agg.Add(i, s.matcher.Match(entry.Path, data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanned, failed := agg.Counts()
	report := &types.ScanReport{
		Repository:   info,
		Branch:       branch,
		Results:      agg.Findings(),
		ScannedFiles: scanned,
		FailedFiles:  failed,
		Truncated:    tree.Truncated,
		Scanner:      Name,
	}

	log.Info().
		Int("scanned", scanned).
		Int("failed", failed).
		Int("findings", len(report.Results)).
		Dur("elapsed", time.Since(start)).
		Msg("scan complete")

	return report, nil
}

// fetch returns a file's content from the cache or the API.
func (s *Scanner) fetch(ctx context.Context, api API, ref types.RepositoryRef, branch string, entry types.TreeEntry) ([]byte, error) {
	if data, ok := s.opts.Cache.Get(entry.SHA); ok {
		return data, nil
	}

	data, err := api.Content(ctx, ref, branch, entry.Path)
	if err != nil {
		return nil, err
	}

	if s.opts.Cache != nil && !s.opts.Cache.Put(entry.SHA, data) {
		s.log.Debug().Str("file", entry.Path).Str("sha", entry.SHA).Msg("content does not match tree SHA, not cached")
	}
	return data, nil
}

// fatal prefers the caller's cancellation over the error it caused.
func fatal(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("scanning repository: %w", err)
}
