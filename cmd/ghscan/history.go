package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/checkmygithub/ghscan/pkg/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scans from a datastore",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("datastore", "ghscan.db", "Datastore path (sqlite) or postgres:// URL")
	historyCmd.Flags().Int("limit", 20, "Number of scans to show (0 for all)")
	historyCmd.Flags().String("format", "table", "Output format: table, json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	datastore := config.GetString("datastore")
	if datastore == "" || datastore == "memory" || datastore == ":memory:" {
		return fmt.Errorf("history needs a persistent datastore")
	}

	st, err := store.Open(datastore)
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer st.Close()

	return showHistory(cmd.OutOrStdout(), st, config.GetInt("limit"), config.GetString("format"))
}

func showHistory(w io.Writer, st store.Store, limit int, format string) error {
	scans, err := st.RecentScans(limit)
	if err != nil {
		return fmt.Errorf("retrieving scans: %w", err)
	}

	switch format {
	case "json":
		if scans == nil {
			scans = []store.ScanRecord{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(scans)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		fmt.Fprintf(tw, "When\tRepository\tStatus\tFiles\tFindings\n")
		for _, s := range scans {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
				s.CreatedAt.Local().Format(time.DateTime), s.RepoURL, s.Status, s.ScannedFiles, s.Findings)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
