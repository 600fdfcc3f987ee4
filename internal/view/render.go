// internal/view/render.go
//
// Central view engine: template lookup, func-map injection, and an LRU of
// parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Register       – attach a component's template filesystem.
//   - Render         – render a page into a buffer and write it with the
//     given status.  A template error never leaves half a page on the wire.
//
// Lookup
// ------
// Every page is parsed as one set made of:
//  1. layout/*.html from this package (the “base” shell), and
//  2. the component's <name>.html plus every partial “_*.html” beside it.
//
// The page file defines {{ define "content" }}; the engine always executes
// “base”, which pulls in “content”.  Sets are cached per comp::name; pass
// CacheSkip (or set Engine.NoCache in development) to re-parse.  Concurrent
// misses for the same key share one parse via singleflight.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/movienest/internal/cache"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/head"
	"github.com/yanizio/movienest/internal/message"
)

//go:embed layout/*.html
var layoutFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheet tree served under /static/.
func Static() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // reuse the parsed set
	CacheSkip                       // always re-parse
)

// Page is the data every template receives.
type Page struct {
	Head      *head.Builder
	Notice    message.Notice
	LoggedIn  bool
	RequestID string
	CSRF      string // token for forms without a FormDef (logout)
	Form      *form.View
	Data      any
}

// NewPage returns a Page with a fresh head builder.
func NewPage(title string) *Page {
	h := head.New()
	h.SetTitle(title)
	h.Link("stylesheet", "/static/app.css")
	return &Page{Head: h}
}

// Engine renders component templates.
type Engine struct {
	NoCache bool

	mu    sync.RWMutex
	comps map[string]fs.FS
	lru   *cache.LRU[string, *template.Template]
	sf    singleflight.Group
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		comps: make(map[string]fs.FS),
		lru:   cache.New[string, *template.Template](256),
	}
}

// Register attaches fsys (rooted at the component's templates directory)
// under comp.  Re-registering replaces the previous tree.
func (e *Engine) Register(comp string, fsys fs.FS) {
	e.mu.Lock()
	e.comps[comp] = fsys
	e.mu.Unlock()
	e.lru.Purge()
}

// Render executes comp/name with p and writes it with status.
func (e *Engine) Render(w http.ResponseWriter, status int, comp, name string, p *Page, policy CachePolicy) error {
	t, err := e.load(comp, name, policy)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		return fmt.Errorf("execute %s/%s: %w", comp, name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// load finds and (if necessary) parses the template set.
func (e *Engine) load(comp, name string, policy CachePolicy) (*template.Template, error) {
	key := comp + "::" + name
	useCache := policy != CacheSkip && !e.NoCache

	if useCache {
		if t, ok := e.lru.Get(key); ok {
			return t, nil
		}
	}

	v, err, _ := e.sf.Do(key, func() (any, error) {
		t, err := e.parse(comp, name)
		if err == nil && useCache {
			e.lru.Add(key, t)
		}
		return t, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

// parse builds a fresh set for comp/name.
func (e *Engine) parse(comp, name string) (*template.Template, error) {
	e.mu.RLock()
	fsys, ok := e.comps[comp]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("view: component %q not registered", comp)
	}

	t, err := template.New(name).Funcs(funcMap()).ParseFS(layoutFS, "layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if partials, _ := fs.Glob(fsys, "_*.html"); len(partials) > 0 {
		if t, err = t.ParseFS(fsys, partials...); err != nil {
			return nil, fmt.Errorf("parse %s partials: %w", comp, err)
		}
	}
	if t, err = t.ParseFS(fsys, name+".html"); err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", comp, name, err)
	}
	return t, nil
}

//
// func-map
//

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":  dict,
		"asset": func(p string) string { return "/static/" + p },
		// Preview data URLs only; html/template rejects data: otherwise.
		"safeURL": func(s string) template.URL { return template.URL(s) },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
