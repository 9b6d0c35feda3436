package serve

// ScanRequest is the body of POST /scan-secrets and POST /notify-scan.
type ScanRequest struct {
	RepoURL string `json:"repoUrl"`
}

// SignupRequest is the body of POST /notify-signup.
type SignupRequest struct {
	UserEmail     string `json:"userEmail"`
	RepoURL       string `json:"repoUrl,omitempty"`
	PricingOption string `json:"pricingOption,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AckResponse acknowledges a notification.
type AckResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rules   int    `json:"rules,omitempty"`
}
