// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects industry-standard headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years)
//   • Content-Security-Policy   –  self-only policy; posters may also come
//                                  from the movie API origin, and previews
//                                  are data: URLs
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP; once a handler writes the
//   status line, later header changes are lost.  Handlers may still
//   override any of them.
// • HSTS is only sent when forceHTTPS is on, so local HTTP development is
//   not pinned to TLS by the browser.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"net/url"
)

// Security returns a wrapper that sets security headers for every response.
// apiBase is the movie API root; its origin is allowed as an image source.
func Security(apiBase string, forceHTTPS bool) func(http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		perm  = "geolocation=(), microphone=(), camera=()"
	)
	csp := "default-src 'self'; img-src 'self' data:" + origin(apiBase) +
		"; object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'none'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if forceHTTPS {
				h.Set("Strict-Transport-Security", hsts)
			}
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Frame-Options", xfo)
			h.Set("X-Content-Type-Options", nosn)
			h.Set("Referrer-Policy", refer)
			h.Set("Permissions-Policy", perm)
			next.ServeHTTP(w, r)
		})
	}
}

// origin returns " scheme://host" for base, or "" when it cannot be parsed.
func origin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return " " + u.Scheme + "://" + u.Host
}
