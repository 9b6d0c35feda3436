package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmygithub/ghscan/pkg/store"
	"github.com/checkmygithub/ghscan/pkg/types"
)

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runVersion(cmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "ghscan v")
	assert.Contains(t, output, "Commit:")
	assert.Contains(t, output, "Go version:")
	assert.Contains(t, output, "OS/Arch:")
}

func TestRunRulesList(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	rulesPath = ""
	outputFormat = "table"

	require.NoError(t, runRulesList(cmd, []string{}))

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "AWS Access Key")
	assert.Contains(t, output, "HIGH")
}

func TestRunRulesListJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	rulesPath = ""
	outputFormat = "json"

	require.NoError(t, runRulesList(cmd, []string{}))

	var listing []ruleListing
	require.NoError(t, json.Unmarshal(buf.Bytes(), &listing))
	require.NotEmpty(t, listing)
	for _, r := range listing {
		assert.Equal(t, types.SeverityForRuleName(r.Name), r.Severity, r.Name)
	}
}

func TestRunRulesValidate(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	rulesPath = ""
	require.NoError(t, runRulesValidate(cmd, []string{}))
	assert.Contains(t, buf.String(), "rules OK")
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, colorEnabled("always", &buf))
	assert.False(t, colorEnabled("never", &buf))
	assert.False(t, colorEnabled("auto", &buf))
}

func sampleReport() *types.ScanReport {
	return &types.ScanReport{
		Repository: &types.RepositoryInfo{FullName: "octo/demo", DefaultBranch: "main"},
		Branch:     "main",
		Results: []types.Finding{
			{File: "config.env", RuleID: "Generic API Key", MatchCount: 1, Severity: types.SeverityMedium},
			{File: "id_rsa.txt", RuleID: "RSA Private Key", MatchCount: 1, Severity: types.SeverityHigh},
		},
		ScannedFiles: 4,
		FailedFiles:  1,
	}
}

func TestOutputScanHuman(t *testing.T) {
	var buf bytes.Buffer
	rules := []*types.Rule{{ID: "ghscan.generic.1", Name: "Generic API Key"}}

	require.NoError(t, outputScanHuman(&buf, sampleReport(), rules, false))

	output := buf.String()
	assert.Contains(t, output, "Repository: octo/demo")
	assert.Contains(t, output, "Branch: main")
	assert.Contains(t, output, "MEDIUM Generic API Key (ghscan.generic.1)")
	assert.Contains(t, output, "HIGH   RSA Private Key")
	assert.Contains(t, output, "config.env  1 match")
	assert.Contains(t, output, "2 findings (1 high, 1 medium) in 4 scanned files, 1 could not be fetched")
	assert.NotContains(t, output, "\x1b[")
}

func TestOutputScanHuman_Color(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputScanHuman(&buf, sampleReport(), nil, true))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestOutputScanJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputScanJSON(&buf, &types.ScanReport{Results: []types.Finding{}}))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, []any{}, parsed["results"])
	assert.Equal(t, float64(0), parsed["scannedFiles"])
}

func TestOutputScanSARIF(t *testing.T) {
	var buf bytes.Buffer
	rules := []*types.Rule{{ID: "ghscan.pem.2", Name: "RSA Private Key"}}
	require.NoError(t, outputScanSARIF(&buf, sampleReport(), rules))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "2.1.0", parsed["version"])
	assert.Contains(t, buf.String(), `"level": "error"`)
}

func TestShowHistory(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.RecordScan(store.ScanRecord{
		RepoURL: "https://github.com/octo/demo", Status: store.StatusCompleted, ScannedFiles: 3, Findings: 1,
	}))

	var buf bytes.Buffer
	require.NoError(t, showHistory(&buf, st, 10, "table"))
	assert.Contains(t, buf.String(), "https://github.com/octo/demo")
	assert.Contains(t, buf.String(), "completed")

	buf.Reset()
	require.NoError(t, showHistory(&buf, store.NewMemory(), 10, "json"))
	assert.Equal(t, "[]\n", buf.String())

	assert.Error(t, showHistory(&buf, st, 10, "xml"))
}

// fakeGitHubAPI serves octo/demo with a single secret-bearing file.
func fakeGitHubAPI(t *testing.T) *httptest.Server {
	t.Helper()
	content := "API_KEY=abcdef0123456789abcdef0123456789\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"full_name":"octo/demo","default_branch":"main"}`))
	})
	mux.HandleFunc("/repos/octo/demo/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sha": "root",
			"tree": []map[string]any{
				{"path": "config.env", "type": "blob", "sha": types.ComputeBlobID([]byte(content)).Hex()},
				{"path": "image.png", "type": "blob", "sha": "x"},
			},
		})
	})
	mux.HandleFunc("/repos/octo/demo/contents/config.env", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEngineConfig(apiURL string) engineConfig {
	return engineConfig{
		Token:       "test-token",
		APIURL:      apiURL,
		Concurrency: 2,
		Timeout:     5 * time.Second,
		Rate:        1000,
	}
}

func TestScanRepository_JSON(t *testing.T) {
	srv := fakeGitHubAPI(t)
	dsPath := filepath.Join(t.TempDir(), "ghscan.db")

	var buf bytes.Buffer
	err := scanRepository(context.Background(), &buf, "https://github.com/octo/demo", testEngineConfig(srv.URL),
		outputConfig{Format: "json", Datastore: dsPath})
	require.NoError(t, err)

	var report types.ScanReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 1, report.ScannedFiles)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Generic API Key", report.Results[0].RuleID)

	st, err := store.Open(dsPath)
	require.NoError(t, err)
	defer st.Close()
	scans, err := st.RecentScans(1)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, store.StatusCompleted, scans[0].Status)
	assert.Equal(t, 1, scans[0].Findings)
}

func TestScanRepository_RuleFilter(t *testing.T) {
	srv := fakeGitHubAPI(t)
	cfg := testEngineConfig(srv.URL)
	cfg.RulesExclude = "Generic"

	var buf bytes.Buffer
	err := scanRepository(context.Background(), &buf, "https://github.com/octo/demo", cfg, outputConfig{Format: "human", Color: "never"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "0 findings"), buf.String())
}

func TestScanRepository_Errors(t *testing.T) {
	srv := fakeGitHubAPI(t)

	var buf bytes.Buffer
	err := scanRepository(context.Background(), &buf, "https://github.com/octo/demo", testEngineConfig(srv.URL), outputConfig{Format: "xml"})
	assert.Error(t, err)

	err = scanRepository(context.Background(), &buf, "https://github.com/octo/other", testEngineConfig(srv.URL), outputConfig{Format: "json"})
	assert.ErrorIs(t, err, types.ErrRepositoryUnreachable)

	err = scanRepository(context.Background(), &buf, "not a url", testEngineConfig(srv.URL), outputConfig{Format: "json"})
	assert.ErrorIs(t, err, types.ErrInvalidRepositoryURL)
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	log := newLogger(&buf, false, true)
	log.Info().Msg("hidden")
	log.Error().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = newLogger(&buf, true, false)
	log.Debug().Msg("debug line")
	assert.Contains(t, buf.String(), "debug line")
}
