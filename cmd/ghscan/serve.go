package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/checkmygithub/ghscan/pkg/scanner"
	"github.com/checkmygithub/ghscan/pkg/serve"
	"github.com/checkmygithub/ghscan/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan API over HTTP",
	Long: `Start an HTTP server exposing:
  POST /scan-secrets   {"repoUrl": "..."}  scan a repository
  POST /notify-scan    {"repoUrl": "..."}  record a scan request
  POST /notify-signup  {"userEmail": "...", "repoUrl": "...", "pricingOption": "..."}
  GET  /healthz

A user OAuth token sent as X-GitHub-Token overrides the server's credential.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addEngineFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("datastore", "memory", "Datastore for scan records and signups (memory, sqlite path, or postgres:// URL)")
	serveCmd.Flags().StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	serveCmd.Flags().Duration("cache-ttl", 10*time.Minute, "How long fetched blobs are cached (0 disables the cache)")
	serveCmd.Flags().Uint64("cache-size", 10000, "Maximum number of cached blobs")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadEngineConfig(config)

	set, err := cfg.ruleSet()
	if err != nil {
		return err
	}

	var cache *scanner.ContentCache
	if ttl := config.GetDuration("cache-ttl"); ttl > 0 {
		cache = scanner.NewContentCache(ttl, config.GetUint64("cache-size"))
		defer cache.Close()
	}

	s, err := cfg.newScanner(set, cache)
	if err != nil {
		return err
	}

	st, err := store.Open(config.GetString("datastore"))
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer st.Close()

	srv := serve.NewServer(serve.Config{
		Scanner:        s,
		Credentials:    cfg.credentials(),
		Store:          st,
		AllowedOrigins: config.GetStringSlice("cors-origins"),
		RuleCount:      set.Len(),
		Logger:         logger,
	})

	logger.Info().Int("rules", set.Len()).Msg("starting server")
	return srv.Run(cmd.Context(), config.GetString("addr"))
}
