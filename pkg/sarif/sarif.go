// Package sarif renders scan reports as SARIF 2.1.0 for code-scanning tools.
package sarif

import (
	"encoding/json"
	"fmt"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "ghscan"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool       Tool           `json:"tool"`
	Results    []Result       `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule represents a detection rule
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single finding
type Result struct {
	RuleID     string         `json:"ruleId"`
	Level      string         `json:"level"`
	Message    Message        `json:"message"`
	Locations  []Location     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location. Findings are per file, so
// no region is reported.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: toolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a detection rule to the report
func (r *Report) AddRule(rule *types.Rule) {
	sarifRule := Rule{
		ID:   rule.ID,
		Name: rule.Name,
		ShortDescription: ShortDescription{
			Text: rule.Description,
		},
	}

	// Add first reference as helpUri if available
	if len(rule.References) > 0 {
		sarifRule.HelpURI = rule.References[0]
	}

	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, sarifRule)
}

// AddFinding adds a finding. ruleID is the SARIF rule id to reference;
// callers without one pass the finding's rule name.
func (r *Report) AddFinding(f types.Finding, ruleID string) {
	noun := "matches"
	if f.MatchCount == 1 {
		noun = "match"
	}

	result := Result{
		RuleID: ruleID,
		Level:  Level(f.Severity),
		Message: Message{
			Text: fmt.Sprintf("%s (%d %s)", f.RuleID, f.MatchCount, noun),
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: f.File},
				},
			},
		},
		Properties: map[string]any{
			"matchCount": f.MatchCount,
			"severity":   string(f.Severity),
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// FromScanReport builds a SARIF report for a scan. rules supplies the
// rule metadata; findings are linked to rules by name.
func FromScanReport(report *types.ScanReport, rules []*types.Rule, toolVersion string) *Report {
	out := NewReport(toolVersion)

	idByName := make(map[string]string, len(rules))
	for _, rule := range rules {
		out.AddRule(rule)
		idByName[rule.Name] = rule.ID
	}

	for _, f := range report.Results {
		id, ok := idByName[f.RuleID]
		if !ok {
			id = f.RuleID
		}
		out.AddFinding(f, id)
	}

	props := map[string]any{
		"scannedFiles": report.ScannedFiles,
		"failedFiles":  report.FailedFiles,
	}
	if report.Branch != "" {
		props["branch"] = report.Branch
	}
	if report.Repository != nil {
		props["repository"] = report.Repository.FullName
	}
	if report.Truncated {
		props["truncated"] = true
	}
	out.Runs[0].Properties = props

	return out
}

// Level maps a severity to a SARIF result level.
func Level(s types.Severity) string {
	if s == types.SeverityHigh {
		return "error"
	}
	return "warning"
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
