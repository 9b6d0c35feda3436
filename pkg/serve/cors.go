package serve

import (
	"net/http"
	"strings"
)

// CORS header values for the browser client.
const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-github-token"
	corsMaxAge       = "86400"
)

// corsMiddleware adds CORS headers for allowed origins and answers
// preflight requests. An empty list or "*" allows every origin.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
		}
		if origin != "" {
			allowed[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigin := ""
		if wildcard {
			allowedOrigin = "*"
		} else if origin := r.Header.Get("Origin"); allowed[origin] {
			allowedOrigin = origin
			w.Header().Add("Vary", "Origin")
		}

		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
		}

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
