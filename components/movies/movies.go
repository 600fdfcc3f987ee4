// components/movies/movies.go
//
// MovieNest movies component: the paginated list, the create page, and the
// edit page.
//
// Handlers translate HTTP into catalog controller calls and controller
// Outcomes back into either a 303 redirect (with a flashed notice) or a
// rendered page.  A canceled Outcome writes nothing: the browser has gone
// away.
//
//------------------------------------------------------------------------------

package movies

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/movienest/internal/catalog"
	"github.com/yanizio/movienest/internal/component"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/pager"
)

var _ component.Component = (*Component)(nil)

//go:embed templates/*.html
var templatesFS embed.FS

const msgStaleForm = "Your session expired. Please try again."

// previewWait bounds how long a re-render waits for the image thumbnail.
// When it is not ready the drop zone shows its placeholder instead.
var previewWait = 2 * time.Second

// FormPage is the data of the create and edit templates.
type FormPage struct {
	Heading    string
	Action     string
	Submit     string
	Preview    string // data URL of the chosen image, if any
	ImageURL   string // existing poster on the edit page
	CancelHref string
}

// Component owns the /movies routes.
type Component struct {
	deps   component.Deps
	list   *catalog.List
	create *catalog.Create
	edit   *catalog.Edit
}

func (c *Component) Name() string         { return "movies" }
func (c *Component) Migrations() []string { return nil }

// Init wires the controllers and registers the templates.
func (c *Component) Init(d component.Deps) error {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return err
	}
	d.Views.Register(c.Name(), sub)
	c.deps = d
	c.list = &catalog.List{API: d.API, Sessions: d.Sessions}
	c.create = &catalog.Create{API: d.API, Sessions: d.Sessions}
	c.edit = &catalog.Edit{API: d.API, Sessions: d.Sessions}
	return nil
}

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(catalog.PathMovies, c.handleList)
	r.Get(catalog.PathCreate, c.handleCreateGET)
	r.Post(catalog.PathCreate, c.handleCreatePOST)
	r.Get("/movies/edit/{id}", c.handleEditGET)
	r.Post("/movies/edit/{id}", c.handleEditPOST)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── list ─────────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	page := pager.ParsePage(r.URL.Query().Get("page"))
	res := c.list.Load(r.Context(), page)
	switch {
	case res.Canceled:
		return
	case res.Redirect != "":
		c.deps.Redirect(w, r, res.Redirect, res.Notice)
		return
	}

	p := c.deps.NewPage(r, "My movies")
	p.Data = res.View
	c.deps.Render(w, r, http.StatusOK, c.Name(), "list", p)
}

/*──────────────────────────── create ───────────────────────────────────────*/

func (c *Component) handleCreateGET(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, r, catalog.FormCreate, c.create.Show(r.Context()), createPage())
}

func (c *Component) handleCreatePOST(w http.ResponseWriter, r *http.Request) {
	sub, ok := c.parse(w, r, catalog.FormCreate, createPage())
	if !ok {
		return
	}
	o := c.create.Submit(r.Context(), sub)
	c.finish(w, r, catalog.FormCreate, o, createPage())
}

func createPage() FormPage {
	return FormPage{
		Heading:    "Create a new movie",
		Action:     catalog.PathCreate,
		Submit:     "Submit",
		CancelHref: catalog.PathMovies,
	}
}

/*──────────────────────────── edit ─────────────────────────────────────────*/

func (c *Component) handleEditGET(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	res := c.edit.Load(r.Context(), id)
	c.finish(w, r, catalog.FormEdit, res.Outcome, editPage(res.View))
}

func (c *Component) handleEditPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	fp := editPage(catalog.EditView{ID: id})
	sub, ok := c.parse(w, r, catalog.FormEdit, fp)
	if !ok {
		return
	}
	res := c.edit.Submit(r.Context(), id, sub)
	c.finish(w, r, catalog.FormEdit, res.Outcome, editPage(res.View))
}

func editPage(v catalog.EditView) FormPage {
	return FormPage{
		Heading:    "Edit",
		Action:     catalog.EditPath(v.ID),
		Submit:     "Update",
		ImageURL:   v.ImageURL,
		CancelHref: catalog.PathMovies,
	}
}

// movieID reads {id}; anything but a positive integer is a 404.
func movieID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

/*──────────────────────────── shared ───────────────────────────────────────*/

// parse reads the POST.  A stale or forged CSRF token re-renders the form
// with a form-level error and the posted text values; other body errors
// are answered directly.
func (c *Component) parse(w http.ResponseWriter, r *http.Request, formID string, fp FormPage) (*form.Submission, bool) {
	sub, err := form.ParseSubmission(w, r)
	if err == nil {
		return sub, true
	}

	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, form.ErrCSRF):
		c.renderForm(w, r, formID, catalog.Outcome{
			Errors: []form.ErrorField{{Message: msgStaleForm}},
			Values: map[string]string{
				"movie_title":           r.PostForm.Get("movie_title"),
				"movie_publishing_year": r.PostForm.Get("movie_publishing_year"),
			},
		}, fp)
	case errors.As(err, &tooBig):
		http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
	default:
		logger.FromContext(r.Context()).Infow("movie form: bad request body", "err", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	}
	return nil, false
}

// finish applies a controller Outcome.
func (c *Component) finish(w http.ResponseWriter, r *http.Request, formID string, o catalog.Outcome, fp FormPage) {
	switch {
	case o.Canceled:
		return
	case o.Redirect != "":
		c.deps.Redirect(w, r, o.Redirect, o.Notice)
	default:
		c.renderForm(w, r, formID, o, fp)
	}
}

func (c *Component) renderForm(w http.ResponseWriter, r *http.Request, formID string, o catalog.Outcome, fp FormPage) {
	p := c.deps.NewPage(r, fp.Heading)
	if !o.Notice.Empty() {
		p.Notice = o.Notice
	}
	v, err := form.NewView(r.Context(), formID, o.Values, o.Errors)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("movie form", "form", formID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	p.Form = v
	fp.Preview = o.Preview.Wait(previewWait)
	p.Data = fp
	c.deps.Render(w, r, component.Status(o), c.Name(), "form", p)
}
