package types

// ScanReport is the immutable result of one repository scan.
type ScanReport struct {
	Repository   *RepositoryInfo `json:"repository,omitempty"`
	Branch       string          `json:"branch,omitempty"`
	Results      []Finding       `json:"results"`
	ScannedFiles int             `json:"scannedFiles"`
	FailedFiles  int             `json:"failedFiles"`
	Truncated    bool            `json:"truncated,omitempty"`
	Scanner      string          `json:"scanner,omitempty"`
}

// CountBySeverity returns the number of findings per severity.
func (r *ScanReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Results {
		counts[f.Severity]++
	}
	return counts
}
