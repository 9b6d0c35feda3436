package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/checkmygithub/ghscan/pkg/sarif"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// styles holds color formatters for human output
type styles struct {
	heading  *color.Color
	file     *color.Color
	ruleName *color.Color
	ruleID   *color.Color
	high     *color.Color
	medium   *color.Color
	metadata *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color never and NO_COLOR
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold, color.FgHiWhite),
		file:     color.New(color.FgHiGreen),
		ruleName: color.New(color.Bold, color.FgHiBlue),
		ruleID:   color.New(color.FgHiBlack),
		high:     color.New(color.Bold, color.FgHiRed),
		medium:   color.New(color.FgYellow),
		metadata: color.New(color.FgHiBlue),
	}

	for _, c := range []*color.Color{s.heading, s.file, s.ruleName, s.ruleID, s.high, s.medium, s.metadata} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

func (s *styles) severity(sev types.Severity) *color.Color {
	if sev == types.SeverityHigh {
		return s.high
	}
	return s.medium
}

// colorEnabled resolves --color auto|always|never for w.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func outputScanJSON(w io.Writer, report *types.ScanReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func outputScanSARIF(w io.Writer, report *types.ScanReport, rules []*types.Rule) error {
	data, err := sarif.FromScanReport(report, rules, version).ToJSON()
	if err != nil {
		return fmt.Errorf("encoding SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputScanHuman(w io.Writer, report *types.ScanReport, rules []*types.Rule, useColor bool) error {
	st := newStyles(useColor)
	byName := rulesByName(rules)

	name := ""
	if report.Repository != nil {
		name = report.Repository.FullName
	}
	if name != "" {
		st.heading.Fprintf(w, "Repository: %s", name)
		fmt.Fprintln(w)
	}
	if report.Branch != "" {
		st.metadata.Fprintf(w, "Branch: %s", report.Branch)
		fmt.Fprintln(w)
	}
	if report.Truncated {
		st.high.Fprint(w, "Warning: the repository tree was truncated; some files were not scanned")
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	for i, f := range report.Results {
		st.severity(f.Severity).Fprintf(w, "%-6s", f.Severity)
		fmt.Fprint(w, " ")
		st.ruleName.Fprint(w, f.RuleID)
		if r, ok := byName[f.RuleID]; ok {
			fmt.Fprint(w, " ")
			st.ruleID.Fprintf(w, "(%s)", r.ID)
		}
		fmt.Fprintln(w)

		fmt.Fprint(w, "       ")
		st.file.Fprint(w, f.File)
		matches := "matches"
		if f.MatchCount == 1 {
			matches = "match"
		}
		fmt.Fprintf(w, "  %d %s\n", f.MatchCount, matches)

		if i < len(report.Results)-1 {
			fmt.Fprintln(w)
		}
	}

	counts := report.CountBySeverity()
	if len(report.Results) > 0 {
		fmt.Fprintln(w)
	}
	st.heading.Fprintf(w, "%d findings", len(report.Results))
	fmt.Fprintf(w, " (%d high, %d medium) in %d scanned files", counts[types.SeverityHigh], counts[types.SeverityMedium], report.ScannedFiles)
	if report.FailedFiles > 0 {
		fmt.Fprintf(w, ", %d could not be fetched", report.FailedFiles)
	}
	fmt.Fprintln(w)
	return nil
}
