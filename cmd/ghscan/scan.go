package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/checkmygithub/ghscan/pkg/locator"
	"github.com/checkmygithub/ghscan/pkg/store"
	"github.com/checkmygithub/ghscan/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan <repository-url>",
	Short: "Scan a GitHub repository for secrets",
	Long: `Scan one GitHub repository through the REST API.
The repository's default branch is scanned unless --branch is given.
Only text-like files (.js .ts .json .yml .yaml .env .txt .md .jsx .tsx) are fetched.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	addEngineFlags(scanCmd)
	scanCmd.Flags().String("format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().String("color", "auto", "Color output: auto, always, never")
	scanCmd.Flags().String("datastore", "", "Record the scan in this datastore (sqlite path or postgres:// URL)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := loadEngineConfig(config)
	return scanRepository(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, outputConfig{
		Format:    config.GetString("format"),
		Color:     config.GetString("color"),
		Datastore: config.GetString("datastore"),
	})
}

type outputConfig struct {
	Format    string
	Color     string
	Datastore string
}

func scanRepository(ctx context.Context, out io.Writer, repoURL string, cfg engineConfig, oc outputConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch oc.Format {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", oc.Format)
	}

	set, err := cfg.ruleSet()
	if err != nil {
		return err
	}

	s, err := cfg.newScanner(set, nil)
	if err != nil {
		return err
	}

	cred, err := cfg.credentials().Credential(ctx)
	if err != nil {
		return err
	}

	report, scanErr := s.ScanRepository(ctx, repoURL, cred)

	if oc.Datastore != "" {
		if err := recordScan(oc.Datastore, repoURL, report, scanErr); err != nil {
			logger.Warn().Err(err).Msg("recording scan")
		}
	}
	if scanErr != nil {
		return scanErr
	}

	switch oc.Format {
	case "json":
		return outputScanJSON(out, report)
	case "sarif":
		return outputScanSARIF(out, report, set.Rules())
	default:
		return outputScanHuman(out, report, set.Rules(), colorEnabled(oc.Color, out))
	}
}

func recordScan(datastore, repoURL string, report *types.ScanReport, scanErr error) error {
	st, err := store.Open(datastore)
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer st.Close()

	ref, _ := locator.Parse(repoURL)
	rec := store.ScanRecord{RepoURL: repoURL, Owner: ref.Owner, Repo: ref.Repo, Status: store.StatusCompleted}
	if scanErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = scanErr.Error()
	} else {
		rec.ScannedFiles = report.ScannedFiles
		rec.Findings = len(report.Results)
	}
	return st.RecordScan(rec)
}
