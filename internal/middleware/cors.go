package middleware

import (
	"net/http"
	"strings"
)

// CORS headers the browser donation form needs
const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, OPTIONS"
)

// CORS attaches cross-origin headers to every relay response, including errors
// and pre-flight replies
type CORS struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewCORS creates a CORS middleware. "*" (or an empty list) allows any origin.
func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{origins: make(map[string]struct{})}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			c.allowAll = true
		}
		if origin != "" {
			c.origins[origin] = struct{}{}
		}
	}
	if len(c.origins) == 0 {
		c.allowAll = true
	}
	return c
}

// Middleware wraps an HTTP handler with CORS headers
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		switch {
		case c.allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		default:
			origin := r.Header.Get("Origin")
			if _, ok := c.origins[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			// Responses differ per Origin, so shared caches must key on it
			h.Add("Vary", "Origin")
		}

		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		next.ServeHTTP(w, r)
	})
}
