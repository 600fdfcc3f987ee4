// Package catalog holds the page controllers of the movie client: login,
// movie list, create, and edit.
//
// Controllers are HTTP-agnostic.  Each operation takes the request context,
// talks to the movie API and the session store through small interfaces,
// and returns an Outcome that the component handlers turn into a redirect
// or a rendered page.  The context doubles as the per-invocation lifetime
// token: when it is done after I/O the Outcome is marked Canceled and the
// handler writes nothing.
package catalog

import (
	"context"
	"embed"
	"strconv"
	"strings"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/preview"
	"github.com/yanizio/movienest/internal/session"
	"github.com/yanizio/movienest/internal/upload"
)

// Form identifiers, defined in forms/*.yaml.
const (
	FormLogin  = "auth/login"
	FormCreate = "movies/create"
	FormEdit   = "movies/edit"
)

// Routes the controllers redirect to.
const (
	PathLogin  = "/login"
	PathMovies = "/movies"
	PathCreate = "/movies/create"
)

// EditPath is the edit page of movie id.
func EditPath(id int) string { return "/movies/edit/" + strconv.Itoa(id) }

// ListPath is page p of the movie list.
func ListPath(p int) string { return PathMovies + "?page=" + strconv.Itoa(p) }

//go:embed forms/*.yaml
var formsFS embed.FS

func init() {
	if err := form.RegisterFS(formsFS, "forms"); err != nil {
		panic(err)
	}
}

// API is the subset of *api.Client the controllers call.
type API interface {
	Login(ctx context.Context, cr api.Credentials) (*api.LoginResult, error)
	ListMovies(ctx context.Context, page, limit int) (*api.MoviePage, error)
	GetMovie(ctx context.Context, id int) (*api.Movie, error)
	CreateMovie(ctx context.Context, d api.MovieDraft) error
	UpdateMovie(ctx context.Context, id int, d api.MovieDraft) error
	ImageURL(filename string) string
}

// Sessions is the subset of *session.Store the controllers use.
type Sessions interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, tok string) error
	RemoveToken(ctx context.Context) error
	Remember(ctx context.Context, persist bool)

	StashUpload(ctx context.Context, slot string, f *upload.File)
	StashedUpload(ctx context.Context, slot string) *upload.File
	DropUpload(ctx context.Context, slot string)

	RememberOriginal(ctx context.Context, id int, o session.Original)
	OriginalFor(ctx context.Context, id int) (session.Original, bool)
	ForgetOriginal(ctx context.Context, id int)
}

var (
	_ API      = (*api.Client)(nil)
	_ Sessions = (*session.Store)(nil)
)

// Outcome tells the handler what to do next.
//
// A non-empty Redirect means “flash Notice and redirect”.  Otherwise the
// page is rendered with Values, Errors, Notice, and (for movie forms) the
// Preview once it is ready.
type Outcome struct {
	Redirect string
	Notice   message.Notice
	Errors   []form.ErrorField
	Values   map[string]string
	Preview  *preview.Pending
	Canceled bool
}

func canceled(ctx context.Context) bool { return ctx.Err() != nil }

// draftImage returns the image posted under name, falling back to the one
// stashed in slot by a previous failed submission of the same form.  The
// chosen image is written back into sub so validation sees it.
func draftImage(ctx context.Context, s Sessions, slot string, sub *form.Submission, name string) *upload.File {
	img := sub.File(name)
	if img.Empty() {
		img = s.StashedUpload(ctx, slot)
	}
	if !img.Empty() {
		if sub.Files == nil {
			sub.Files = map[string]*upload.File{}
		}
		sub.Files[name] = img
	}
	return img
}

// echo returns trimmed raw values for re-rendering a rejected form.
func echo(sub *form.Submission, names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = strings.TrimSpace(sub.Values.Get(n))
	}
	return out
}
