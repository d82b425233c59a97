package middleware

import (
	"net/http"
)

// SecurityHeaders adds security-related HTTP headers to relay responses.
// The relay only ever returns JSON envelopes, so the policy is as strict as it gets.
type SecurityHeaders struct {
	// HSTS is skipped in development so plain-HTTP local testing works
	isDevelopment bool
}

// NewSecurityHeaders creates a new security headers middleware
func NewSecurityHeaders(isDevelopment bool) *SecurityHeaders {
	return &SecurityHeaders{
		isDevelopment: isDevelopment,
	}
}

// Middleware wraps an HTTP handler with security headers
func (sh *SecurityHeaders) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")

		if !sh.isDevelopment {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}

		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		h.Set("Referrer-Policy", "no-referrer")

		// Payment outcomes are per-request; never let a proxy replay one
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
