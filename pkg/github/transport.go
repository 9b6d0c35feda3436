package github

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing rps requests per second with the
// given burst. Zero values select the defaults.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// rateLimitedTransport waits on a shared limiter before every outbound request.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
