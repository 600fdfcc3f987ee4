package middleware

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://movies.example.com/movies?page=2", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "https://movies.example.com/movies?page=2", rec.Header().Get("Location"))

	for name, req := range map[string]*http.Request{
		"localhost": httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil),
		"proxied": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://movies.example.com/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}(),
		"tls": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "https://movies.example.com/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}(),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, name)
	}

	rec = httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://movies.example.com/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security("https://api.example.com:4000/v1", false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "img-src 'self' data: https://api.example.com:4000;")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	Security("not a url", true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self' data:;")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestThrottle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	th := NewThrottle(1, 2)
	th.now = func() time.Time { return now }
	h := th.Handler(ok)

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("192.0.2.1"))
	assert.Equal(t, http.StatusOK, post("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("192.0.2.1"))
	assert.Equal(t, http.StatusOK, post("192.0.2.2"), "buckets are per client")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "GET is never throttled")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, post("192.0.2.1"))

	now = now.Add(limiterIdle + time.Second)
	post("192.0.2.3")
	th.mu.Lock()
	n := len(th.clients)
	th.mu.Unlock()
	assert.Equal(t, 3, n, "posting never scans other buckets")

	th.evict(now)
	th.mu.Lock()
	_, idleKept := th.clients["192.0.2.2"]
	_, freshKept := th.clients["192.0.2.3"]
	th.mu.Unlock()
	assert.False(t, idleKept, "idle buckets are evicted")
	assert.True(t, freshKept)
}

func TestThrottle_SpoofedForwardedForSharesBucket(t *testing.T) {
	h := NewThrottle(1, 1).Handler(ok)
	post := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, post("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("198.51.100.2"))
}

func TestThrottle_SweepStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewThrottle(1, 1).Sweep(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sweep did not return after cancel")
	}
}

func TestThrottle_Disabled(t *testing.T) {
	h := NewThrottle(0, 0).Handler(ok)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCrossOrigin(t *testing.T) {
	h := CrossOrigin(make([]byte, 32), nil)(ok)

	cases := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site get", http.MethodGet, "cross-site", http.StatusOK},
		{"no metadata", http.MethodPost, "", http.StatusOK},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, "http://movies.example.com/logout", nil)
		if tc.site != "" {
			r.Header.Set("Sec-Fetch-Site", tc.site)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, tc.want, rec.Code, tc.name)
	}
}
