package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/metrics"
	"github.com/yanizio/movienest/internal/requestinfo"
)

// limiterIdle is how long an unused per-client bucket is kept; Sweep runs
// every sweepEvery.
const (
	limiterIdle = 10 * time.Minute
	sweepEvery  = time.Minute
)

// Throttle limits POSTs per client IP with a token bucket of rps/burst.
// GETs always pass so the login page itself stays reachable.  A zero rps
// disables the limiter.
type Throttle struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewThrottle returns a limiter allowing rps posts per second per client,
// with bursts of burst.
func NewThrottle(rps float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

// Handler wraps next.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.rps <= 0 || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ip := requestinfo.ClientIP(r)
		if !t.allow(ip) {
			metrics.LoginThrottledTotal.Inc()
			logger.FromContext(r.Context()).Infow("login throttled", "ip", ip)
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) allow(ip string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.clients[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.rps, t.burst)}
		t.clients[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep evicts idle buckets until ctx is done.  Run it in its own
// goroutine next to the server.
func (t *Throttle) Sweep(ctx context.Context) {
	tick := time.NewTicker(sweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.evict(t.now())
		}
	}
}

func (t *Throttle) evict(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, b := range t.clients {
		if now.Sub(b.seen) > limiterIdle {
			delete(t.clients, k)
		}
	}
}
