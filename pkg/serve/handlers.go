package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/locator"
	"github.com/checkmygithub/ghscan/pkg/store"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// TokenHeader carries a user-granted OAuth token that overrides the
// server's own credential.
const TokenHeader = "X-GitHub-Token"

func (s *Server) handleScanSecrets(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	cred, err := s.credential(r)
	if err != nil {
		s.log.Error().Err(err).Msg("missing GitHub credentials")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "GitHub credentials not configured"})
		return
	}

	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrMalformedRequest.Error(), Details: err.Error()})
		return
	}
	if req.RepoURL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrMalformedRequest.Error(), Details: "missing repoUrl in request body"})
		return
	}

	if err := locator.ValidateURL(req.RepoURL); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrInvalidRepositoryURL.Error()})
		return
	}

	report, err := s.scanner.ScanRepository(r.Context(), req.RepoURL, cred)
	s.recordScan(req.RepoURL, report, err)
	if err != nil {
		status, body := errorResponse(err)
		s.log.Warn().Err(err).Str("repo", req.RepoURL).Int("status", status).Msg("scan failed")
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleNotifyScan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrMalformedRequest.Error(), Details: err.Error()})
		return
	}
	if err := locator.ValidateURL(req.RepoURL); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrInvalidRepositoryURL.Error()})
		return
	}

	ref, _ := locator.Parse(req.RepoURL)
	rec := store.ScanRecord{
		RepoURL: req.RepoURL,
		Owner:   ref.Owner,
		Repo:    ref.Repo,
		Status:  store.StatusPending,
	}
	if err := s.store.RecordScan(rec); err != nil {
		s.log.Error().Err(err).Msg("recording scan notification")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}

	s.log.Info().Str("repo", req.RepoURL).Msg("scan notification recorded")
	writeJSON(w, http.StatusOK, AckResponse{Success: true})
}

func (s *Server) handleNotifySignup(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: types.ErrMalformedRequest.Error(), Details: err.Error()})
		return
	}

	err := s.store.AddSignup(store.Signup{
		Email:         req.UserEmail,
		RepoURL:       req.RepoURL,
		PricingOption: req.PricingOption,
	})
	switch {
	case errors.Is(err, store.ErrInvalidSignup):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		s.log.Error().Err(err).Msg("recording signup")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}

	s.log.Info().Str("plan", req.PricingOption).Msg("signup recorded")
	writeJSON(w, http.StatusOK, AckResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version, Rules: s.ruleCount})
}

// credential prefers a per-request user token over the configured provider.
func (s *Server) credential(r *http.Request) (credential.Credential, error) {
	if token := strings.TrimSpace(r.Header.Get(TokenHeader)); token != "" {
		return credential.Credential{Token: token}, nil
	}
	if s.credentials == nil {
		return credential.Credential{}, types.ErrCredentialUnavailable
	}
	return s.credentials.Credential(r.Context())
}

func (s *Server) recordScan(repoURL string, report *types.ScanReport, scanErr error) {
	ref, _ := locator.Parse(repoURL)
	rec := store.ScanRecord{RepoURL: repoURL, Owner: ref.Owner, Repo: ref.Repo}
	if scanErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = scanErr.Error()
	} else {
		rec.Status = store.StatusCompleted
		rec.ScannedFiles = report.ScannedFiles
		rec.Findings = len(report.Results)
	}
	if err := s.store.RecordScan(rec); err != nil {
		s.log.Warn().Err(err).Msg("recording scan")
	}
}

// errorResponse maps a scan error to an HTTP status and body.
func errorResponse(err error) (int, ErrorResponse) {
	var apiErr *types.RemoteAPIError
	switch {
	case errors.Is(err, types.ErrInvalidRepositoryURL):
		return http.StatusBadRequest, ErrorResponse{Error: types.ErrInvalidRepositoryURL.Error()}
	case errors.Is(err, types.ErrCredentialUnavailable):
		return http.StatusInternalServerError, ErrorResponse{Error: "GitHub credentials not configured"}
	case errors.Is(err, types.ErrRepositoryUnreachable) && errors.As(err, &apiErr):
		return apiErr.Status, ErrorResponse{
			Error:   fmt.Sprintf("GitHub API error: %s", http.StatusText(apiErr.Status)),
			Details: apiErr.Body,
		}
	case errors.Is(err, types.ErrRepositoryUnreachable):
		return http.StatusBadGateway, ErrorResponse{Error: types.ErrRepositoryUnreachable.Error(), Details: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error()}
	}
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", "POST, OPTIONS")
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	return false
}

// decodeJSON checks the content type and decodes a non-empty JSON body.
func decodeJSON(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.New("content type must be application/json")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
