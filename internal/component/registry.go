// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web runs every
// component's Migrations() against the session database (when there is
// one), calls Init() with the shared Deps, and merges every Routes() into
// the root router with Mount.

package component

import (
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Initializer receives the shared dependencies once at boot, before
// Routes() is called.
type Initializer interface {
	Init(Deps) error
}

// Component contract.
//
// Migrations() may return nil if the component has no schema.  Routes()
// mounts the component's pages, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/login", c.getLogin)
//	r.Post("/login", c.postLogin)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
	Migrations() []string
	Initializer
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component ordered by name, so migrations
// and route mounting are deterministic.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount registers every route of comps on r.  Components share “/”, so
// their routers are merged route by route (middlewares included) instead
// of being mounted as sub-routers.
func Mount(r chi.Router, comps []Component) error {
	for _, c := range comps {
		err := chi.Walk(c.Routes(), func(method, route string, h http.Handler, mws ...func(http.Handler) http.Handler) error {
			r.With(mws...).Method(method, route, h)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
