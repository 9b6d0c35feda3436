package scanner

import (
	"sync"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// Aggregator collects per-file outcomes from concurrent workers.
// Files are identified by their position in the candidate list so the
// final report is ordered by tree position regardless of completion order.
type Aggregator struct {
	mu      sync.Mutex
	files   [][]types.Finding
	scanned int
	failed  int
}

// NewAggregator creates an aggregator for n candidate files.
func NewAggregator(n int) *Aggregator {
	return &Aggregator{files: make([][]types.Finding, n)}
}

// Add records a file that was fetched and matched.
func (a *Aggregator) Add(index int, findings []types.Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[index] = findings
	a.scanned++
}

// Fail records a file that could not be fetched or decoded.
func (a *Aggregator) Fail(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[index] = nil
	a.scanned++
	a.failed++
}

// Findings returns all findings in tree order. Never nil.
func (a *Aggregator) Findings() []types.Finding {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.Finding, 0)
	for _, f := range a.files {
		out = append(out, f...)
	}
	return out
}

// Counts returns the attempted and failed file counts.
func (a *Aggregator) Counts() (scanned, failed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scanned, a.failed
}
