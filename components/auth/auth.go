// components/auth/auth.go
//
// MovieNest authentication component: login and logout.
//
// The page logic lives in catalog.Login and catalog.List; this file only
// adapts HTTP to those controllers.  The component also owns the MySQL
// session table, since the session exists to carry the API token.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/movienest/internal/catalog"
	"github.com/yanizio/movienest/internal/component"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

//go:embed templates/*.html
var templatesFS embed.FS

const msgStaleForm = "Your session expired. Please try again."

// sessionsDDL is the table scs/mysqlstore expects.
const sessionsDDL = `CREATE TABLE IF NOT EXISTS sessions (
	token CHAR(43) PRIMARY KEY,
	data BLOB NOT NULL,
	expiry TIMESTAMP(6) NOT NULL,
	INDEX sessions_expiry_idx (expiry)
)`

// Component encapsulates login and logout.
type Component struct {
	deps  component.Deps
	login *catalog.Login
	list  *catalog.List
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Migrations creates the session table used by the mysql backend.
func (c *Component) Migrations() []string { return []string{sessionsDDL} }

// Init wires the controllers and registers the templates.
func (c *Component) Init(d component.Deps) error {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return err
	}
	d.Views.Register(c.Name(), sub)
	c.deps = d
	c.login = &catalog.Login{API: d.API, Sessions: d.Sessions}
	c.list = &catalog.List{API: d.API, Sessions: d.Sessions}
	return nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", c.handleRoot)
	r.Get(catalog.PathLogin, c.handleLoginGET)
	r.With(c.deps.LoginThrottle()).Post(catalog.PathLogin, c.handleLoginPOST)
	r.Post("/logout", c.handleLogout)
	return r
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, catalog.PathLogin, http.StatusSeeOther)
}

func (c *Component) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	o := c.login.Mount(r.Context())
	if o.Redirect != "" {
		http.Redirect(w, r, o.Redirect, http.StatusSeeOther)
		return
	}
	c.render(w, r, o)
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	sub, err := form.ParseSubmission(w, r)
	if err != nil {
		if errors.Is(err, form.ErrCSRF) {
			c.render(w, r, catalog.Outcome{
				Errors: []form.ErrorField{{Message: msgStaleForm}},
				Values: map[string]string{"email": r.PostForm.Get("email")},
			})
			return
		}
		logger.FromContext(r.Context()).Infow("login: bad request body", "err", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	o := c.login.Submit(r.Context(), sub)
	switch {
	case o.Canceled:
		return
	case o.Redirect != "":
		c.deps.Redirect(w, r, o.Redirect, o.Notice)
	default:
		c.render(w, r, o)
	}
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := form.ParseSubmission(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	o := c.list.Logout(r.Context())
	c.deps.Redirect(w, r, o.Redirect, o.Notice)
}

// render shows the login page for o.  A notice on o wins over a flashed
// one.
func (c *Component) render(w http.ResponseWriter, r *http.Request, o catalog.Outcome) {
	p := c.deps.NewPage(r, "Sign in")
	if !o.Notice.Empty() {
		p.Notice = o.Notice
	}
	v, err := form.NewView(r.Context(), catalog.FormLogin, o.Values, o.Errors)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("login form", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	p.Form = v
	c.deps.Render(w, r, component.Status(o), c.Name(), "login", p)
}
