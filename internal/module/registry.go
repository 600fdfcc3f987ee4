// internal/module/registry.go
//
// A super-light registry for operational endpoints that are not pages:
// modules call Register(path, handler) in an init() function and cmd/web
// mounts every registered path on the root router (exact match, no
// wildcards).
//
// Handlers are plain http.Handlers.  They run outside the session
// middleware, so they must not touch the session store.
package module

import (
	"net/http"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]http.Handler{}
)

// Register is called from module init() functions.  Registering the same
// path twice replaces the earlier handler.
func Register(path string, h http.Handler) {
	mu.Lock()
	registry[path] = h
	mu.Unlock()
}

// Lookup returns the handler for an exact path or nil.
func Lookup(path string) http.Handler {
	mu.RLock()
	defer mu.RUnlock()
	return registry[path]
}

// Paths returns every registered path in sorted order.
func Paths() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
