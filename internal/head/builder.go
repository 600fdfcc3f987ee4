// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render.  Handlers set the
// title and push extra tags; the base layout decides where to emit them.
//
// Features
// --------
//   - SetTitle    – single <title> tag (last call wins), suffixed with the
//     site name.
//   - Meta, Link  – arbitrary pre-built tags with deduplication.
//   - Render helpers return template.HTML.
package head

import (
	"html/template"
	"strings"
)

// SiteName is appended to every page title.
const SiteName = "MovieNest"

// Builder is used by one goroutine per request; it is not locked.
type Builder struct {
	title string
	metas []string
	links []string
	seen  map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag.
func (b *Builder) Title() template.HTML {
	t := SiteName
	if b.title != "" {
		t = b.title + " · " + SiteName
	}
	return template.HTML("<title>" + template.HTMLEscapeString(t) + "</title>")
}

// Meta adds a <meta name=… content=…> tag.
func (b *Builder) Meta(name, content string) {
	b.add("meta:"+name, &b.metas, `<meta name="`+template.HTMLEscapeString(name)+
		`" content="`+template.HTMLEscapeString(content)+`">`)
}

// Link adds a <link rel=… href=…> tag.
func (b *Builder) Link(rel, href string) {
	b.add("link:"+rel+href, &b.links, `<link rel="`+template.HTMLEscapeString(rel)+
		`" href="`+template.HTMLEscapeString(href)+`">`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

func (b *Builder) Metas() template.HTML { return concat(b.metas) }
func (b *Builder) Links() template.HTML { return concat(b.links) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}
