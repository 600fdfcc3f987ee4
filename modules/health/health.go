// modules/health/health.go
//
// Liveness endpoint for load balancers and uptime checks.  It reports the
// process as up and names the movie API it talks to; it never calls the
// API, so a slow upstream does not fail the probe.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanizio/movienest/internal/config"
	"github.com/yanizio/movienest/internal/module"
)

var started = time.Now()

func init() {
	module.Register("/healthz", http.HandlerFunc(handler))
}

type status struct {
	Status string `json:"status"`
	API    string `json:"api,omitempty"`
	Uptime string `json:"uptime"`
}

// handler writes a small JSON blob.
func handler(w http.ResponseWriter, _ *http.Request) {
	out := status{Status: "ok", Uptime: time.Since(started).Round(time.Second).String()}
	if cfg := config.Get(); cfg != nil {
		out.API = cfg.API.BaseURL
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
