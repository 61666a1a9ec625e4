package middleware

import (
	"net/http"
	"strings"
)

// apiHeaders suit a JSON/CBOR API serving personal profile data: nothing is
// cached, rendered as a page or framed.
var apiHeaders = map[string]string{
	"Cache-Control":                "no-store",
	"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
	"Cross-Origin-Resource-Policy": "same-origin",
	"Referrer-Policy":              "no-referrer",
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "DENY",
}

const hsts = "max-age=63072000; includeSubDomains"

// Security sets apiHeaders on every response outside skipPaths (the API
// docs page loads its own scripts). HSTS is added when the request reached
// the edge over HTTPS.
func Security(skipPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasPrefix(r.URL.Path, skipPaths) {
				h := w.Header()
				for k, v := range apiHeaders {
					h.Set(k, v)
				}
				if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
					h.Set("Strict-Transport-Security", hsts)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
