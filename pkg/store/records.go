package store

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Scan record statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ScanRecord is one entry in the scan log.
type ScanRecord struct {
	ID           int64     `json:"id,omitempty"`
	RepoURL      string    `json:"repoUrl"`
	Owner        string    `json:"owner,omitempty"`
	Repo         string    `json:"repo,omitempty"`
	Status       string    `json:"status"`
	ScannedFiles int       `json:"scannedFiles"`
	Findings     int       `json:"findings"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PricingOptions are the plans a signup may pick.
var PricingOptions = []string{
	"One-Time Deep Scan $20",
	"Weekly Monitoring $10/month",
	"Pro Level $25/month",
}

// Signup is an interest registration for paid scanning.
type Signup struct {
	ID            int64     `json:"id,omitempty"`
	Email         string    `json:"userEmail"`
	RepoURL       string    `json:"repoUrl,omitempty"`
	PricingOption string    `json:"pricingOption,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ErrInvalidSignup is returned for signups that fail validation.
var ErrInvalidSignup = errors.New("invalid signup")

// Validate normalizes and checks a signup. The email must be a bare
// address; the pricing option, when set, must be one of PricingOptions.
func (s *Signup) Validate() error {
	s.Email = strings.TrimSpace(s.Email)
	s.RepoURL = strings.TrimSpace(s.RepoURL)
	s.PricingOption = strings.TrimSpace(s.PricingOption)

	if s.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidSignup)
	}
	addr, err := mail.ParseAddress(s.Email)
	if err != nil || addr.Address != s.Email {
		return fmt.Errorf("%w: invalid email address %q", ErrInvalidSignup, s.Email)
	}

	if s.PricingOption != "" {
		known := false
		for _, opt := range PricingOptions {
			if opt == s.PricingOption {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: unknown pricing option %q", ErrInvalidSignup, s.PricingOption)
		}
	}
	return nil
}

func (r *ScanRecord) normalize() error {
	if r.RepoURL == "" {
		return fmt.Errorf("scan record requires a repository URL")
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	switch r.Status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("unknown scan status %q", r.Status)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}
