package component

import (
	"net/http"

	"github.com/yanizio/movienest/internal/catalog"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/requestinfo"
	"github.com/yanizio/movienest/internal/session"
	"github.com/yanizio/movienest/internal/view"
)

// Deps exposes process-wide resources to Components during Init.
type Deps struct {
	API      catalog.API
	Sessions *session.Store
	Views    *view.Engine

	// Throttle guards credential posts.  Nil means unlimited.
	Throttle func(http.Handler) http.Handler
}

// LoginThrottle returns Throttle, or a pass-through when unset.
func (d Deps) LoginThrottle() func(http.Handler) http.Handler {
	if d.Throttle == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return d.Throttle
}

// NewPage builds the page shell for r: title, the flashed notice (popped),
// the signed-in flag, the logout CSRF token, and the request id.
func (d Deps) NewPage(r *http.Request, title string) *view.Page {
	p := view.NewPage(title)
	ctx := r.Context()
	p.Notice = message.Pop(ctx, d.Sessions.Manager())
	if _, p.LoggedIn = d.Sessions.Token(ctx); p.LoggedIn {
		tok, err := form.GenerateToken(ctx)
		if err != nil {
			logger.FromContext(ctx).Warnw("logout csrf token", "err", err)
		}
		p.CSRF = tok
	}
	if ri := requestinfo.FromContext(ctx); ri != nil {
		p.RequestID = ri.ID
	}
	return p
}

// Redirect flashes n and sends a 303 to target.
func (d Deps) Redirect(w http.ResponseWriter, r *http.Request, target string, n message.Notice) {
	message.Flash(r.Context(), d.Sessions.Manager(), n)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Render writes comp/name.  A template failure is logged and answered with
// a bare 500; nothing of the page has been written at that point.
func (d Deps) Render(w http.ResponseWriter, r *http.Request, status int, comp, name string, p *view.Page) {
	if err := d.Views.Render(w, status, comp, name, p, view.CacheDefault); err != nil {
		logger.FromContext(r.Context()).Errorw("render failed", "comp", comp, "page", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Status is the code a re-rendered form page is sent with: 422 when the
// outcome carries field errors, 200 otherwise.
func Status(o catalog.Outcome) int {
	if len(o.Errors) > 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}
