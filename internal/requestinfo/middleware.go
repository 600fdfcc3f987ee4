// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo and writes
// one access-log line per response.
//
/*
Context
--------
This handler sits first in the chain, ahead of sessions and security
headers.  For every request it:

  1. Takes the caller's X-Request-Id when present, otherwise mints a
     UUID, and echoes it on the response.
  2. Resolves the client IP.  X-Forwarded-For and X-Real-IP are only
     believed when the peer is a configured trusted proxy; the address
     is then the right-most hop that is not itself a trusted proxy.
     Otherwise the peer address is the client.
  3. Parses the User-Agent header and Accept-Language list.
  4. Stores a `*RequestInfo` value and a request-scoped zap logger
     (req_id, method, path) in the request context.

After the handler returns it logs status, bytes, duration, IP, and the
parsed browser, version, OS, device, language, and bot flag.  Static assets and /metrics scrapes are logged at DEBUG.

Notes
-----
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/movienest/internal/logger"
)

const headerRequestID = "X-Request-Id"

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
// trusted lists the proxies whose forwarding headers are believed.
func Enrich(base *zap.SugaredLogger, trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				ID:        requestID(r),
				IP:        clientIP(r, trusted),
				UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
				Timestamp: time.Now().UTC(),
			}
			w.Header().Set(headerRequestID, info.ID)

			log := base.With("req_id", info.ID, "method", r.Method, "path", r.URL.Path)
			ctx := logger.WithContext(NewContext(r.Context(), info), log)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logf := log.Infow
			if quiet(r.URL.Path) {
				logf = log.Debugw
			}
			logf("request",
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur", time.Since(info.Timestamp),
				"ip", info.IP,
				"browser", info.UA.Browser,
				"browser_version", info.UA.Version,
				"os", info.UA.OS,
				"device", info.UA.Device,
				"lang", info.UA.PrimaryLang,
				"bot", info.UA.IsBot,
			)
		})
	}
}

func quiet(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/metrics" || path == "/healthz"
}

// requestID accepts a sane inbound id, otherwise mints one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(headerRequestID)); id != "" && len(id) <= 64 {
		return id
	}
	return uuid.NewString()
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// ParseProxies turns config entries (single IPs or CIDR ranges) into
// prefixes for Enrich.
func ParseProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: not an IP or CIDR", e)
		}
		out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
	}
	return out, nil
}

// clientIP returns the peer address unless the peer is a trusted proxy, in
// which case the forwarding headers are walked from the right and the
// first hop outside trusted wins.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !isTrusted(peer, trusted) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !isTrusted(a.String(), trusted) {
				return a.Unmap().String()
			}
		}
	}
	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); err == nil {
		return a.Unmap().String()
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP is the address Enrich resolved, or the bare peer address when
// Enrich did not run.
func ClientIP(r *http.Request) string {
	if ri := FromContext(r.Context()); ri != nil {
		return ri.IP
	}
	return clientIP(r, nil)
}
