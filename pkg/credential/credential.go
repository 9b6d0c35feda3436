// Package credential supplies the GitHub API credential used for a scan.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// Credential is either an OAuth application pair (sent as HTTP Basic auth)
// or a bearer token. Token wins when both are set.
type Credential struct {
	ClientID     string
	ClientSecret string
	Token        string
}

// IsBasic reports whether c carries an application client id/secret pair.
func (c Credential) IsBasic() bool {
	return c.Token == "" && c.ClientID != "" && c.ClientSecret != ""
}

// Valid reports whether c can authenticate at all.
func (c Credential) Valid() bool {
	return c.Token != "" || c.IsBasic()
}

// Provider yields a credential on demand.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Credential, error)

func (f ProviderFunc) Credential(ctx context.Context) (Credential, error) {
	return f(ctx)
}

// Static always returns the same credential.
type Static Credential

func (s Static) Credential(context.Context) (Credential, error) {
	c := Credential(s)
	if !c.Valid() {
		return Credential{}, fmt.Errorf("%w: no token or client id/secret configured", types.ErrCredentialUnavailable)
	}
	return c, nil
}

// Environment variable names read by Env.
const (
	EnvToken        = "GITHUB_TOKEN"
	EnvClientID     = "GITHUB_CLIENT_ID"
	EnvClientSecret = "GITHUB_CLIENT_SECRET"
)

// Env reads GITHUB_TOKEN, or GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET, at call time.
type Env struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (e Env) Credential(ctx context.Context) (Credential, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	c := Credential{
		Token:        get(EnvToken),
		ClientID:     get(EnvClientID),
		ClientSecret: get(EnvClientSecret),
	}
	if !c.Valid() {
		return Credential{}, fmt.Errorf("%w: set %s or %s and %s",
			types.ErrCredentialUnavailable, EnvToken, EnvClientID, EnvClientSecret)
	}
	return c, nil
}

// remoteDocument is the JSON shape served by a secret-provisioning endpoint.
type remoteDocument struct {
	ClientID string `json:"clientId"`
	Secret   string `json:"secret"`
	Token    string `json:"token,omitempty"`
}

// Remote fetches the application credential from a secret-provisioning URL.
type Remote struct {
	URL     string
	Headers map[string]string // e.g. an API key for the endpoint
	Client  *http.Client
}

// NewRemote creates a Remote provider with a bounded HTTP client.
func NewRemote(url string, headers map[string]string) *Remote {
	return &Remote{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Remote) Credential(ctx context.Context) (Credential, error) {
	if r.URL == "" {
		return Credential{}, fmt.Errorf("%w: no credential URL configured", types.ErrCredentialUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", types.ErrCredentialUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", types.ErrCredentialUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Credential{}, fmt.Errorf("%w: %w", types.ErrCredentialUnavailable,
			&types.RemoteAPIError{Status: resp.StatusCode, Body: string(body)})
	}

	var doc remoteDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Credential{}, fmt.Errorf("%w: decoding credential document: %w", types.ErrCredentialUnavailable, err)
	}

	c := Credential{ClientID: doc.ClientID, ClientSecret: doc.Secret, Token: doc.Token}
	if !c.Valid() {
		return Credential{}, fmt.Errorf("%w: credential document is incomplete", types.ErrCredentialUnavailable)
	}
	return c, nil
}

// Chain tries providers in order and returns the first credential found.
type Chain []Provider

func (c Chain) Credential(ctx context.Context) (Credential, error) {
	var lastErr error
	for _, p := range c {
		cred, err := p.Credential(ctx)
		if err == nil {
			return cred, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no providers configured", types.ErrCredentialUnavailable)
	}
	return Credential{}, lastErr
}
