package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/checkmygithub/ghscan/pkg/rule"
	"github.com/checkmygithub/ghscan/pkg/types"
)

var (
	rulesPath    string
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  "Commands for listing and checking detection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display all available detection rules with their IDs, names and severities",
	RunE:  runRulesList,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check rules against their own examples",
	Long: `Compile every rule and run it against its examples and negative examples.
Exits non-zero if any example does not behave as declared.`,
	RunE: runRulesValidate,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to custom rules file or directory")
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
}

func loadRules() ([]*types.Rule, error) {
	if rulesPath != "" {
		rules, err := rule.NewLoader().LoadPath(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", rulesPath, err)
		}
		return rules, nil
	}

	rules, err := rule.NewLoader().LoadBuiltinRules()
	if err != nil {
		return nil, fmt.Errorf("loading builtin rules: %w", err)
	}
	return rules, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	// Output based on format
	switch outputFormat {
	case "json":
		return outputRulesJSON(cmd.OutOrStdout(), rules)
	case "table":
		return outputRulesTable(cmd.OutOrStdout(), rules)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := rule.NewSet(rules); err != nil {
		return err
	}

	failed := 0
	for _, r := range rules {
		failures, err := rule.CheckExamples(r)
		if err != nil {
			return err
		}
		for _, f := range failures {
			fmt.Fprintln(out, f.String())
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d rule examples failed", failed)
	}
	fmt.Fprintf(out, "%d rules OK\n", len(rules))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type ruleListing struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Severity     types.Severity `json:"severity"`
	PresenceOnly bool           `json:"presenceOnly,omitempty"`
	Pattern      string         `json:"pattern"`
	Description  string         `json:"description,omitempty"`
}

func outputRulesJSON(w io.Writer, rules []*types.Rule) error {
	listing := make([]ruleListing, 0, len(rules))
	for _, r := range rules {
		listing = append(listing, ruleListing{
			ID:           r.ID,
			Name:         r.Name,
			Severity:     r.Severity(),
			PresenceOnly: r.PresenceOnly,
			Pattern:      r.Pattern,
			Description:  r.Description,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(listing)
}

func outputRulesTable(w io.Writer, rules []*types.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "ID\tName\tSeverity\n")
	fmt.Fprintf(tw, "--\t----\t--------\n")

	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, r.Severity())
	}

	return nil
}
