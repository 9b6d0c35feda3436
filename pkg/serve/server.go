// Package serve exposes the scanner over HTTP for the web client.
package serve

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/checkmygithub/ghscan/pkg/credential"
	"github.com/checkmygithub/ghscan/pkg/store"
	"github.com/checkmygithub/ghscan/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// shutdownTimeout bounds how long in-flight scans may drain on shutdown.
const shutdownTimeout = 30 * time.Second

// Scanner runs one repository scan.
type Scanner interface {
	ScanRepository(ctx context.Context, repoURL string, cred credential.Credential) (*types.ScanReport, error)
}

// Config configures a Server.
type Config struct {
	Scanner     Scanner
	Credentials credential.Provider

	// Store records scans and signups. Defaults to an in-memory store.
	Store store.Store

	// AllowedOrigins for CORS; empty allows every origin.
	AllowedOrigins []string

	// RuleCount is reported by /healthz.
	RuleCount int

	Logger zerolog.Logger
}

// Server serves the scan and notification endpoints.
type Server struct {
	scanner     Scanner
	credentials credential.Provider
	store       store.Store
	origins     []string
	ruleCount   int
	log         zerolog.Logger
}

// NewServer creates a server from cfg.
func NewServer(cfg Config) *Server {
	st := cfg.Store
	if st == nil {
		st = store.NewMemory()
	}
	return &Server{
		scanner:     cfg.Scanner,
		credentials: cfg.Credentials,
		store:       st,
		origins:     cfg.AllowedOrigins,
		ruleCount:   cfg.RuleCount,
		log:         cfg.Logger,
	}
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scan-secrets", s.handleScanSecrets)
	mux.HandleFunc("/notify-scan", s.handleNotifyScan)
	mux.HandleFunc("/notify-signup", s.handleNotifySignup)
	mux.HandleFunc("/healthz", s.handleHealth)

	return logMiddleware(s.log, corsMiddleware(s.origins, mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Requests in
// flight at that point run to completion, up to the shutdown timeout; their
// contexts are not derived from ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
