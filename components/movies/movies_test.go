package movies

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/component/componenttest"
)

var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func movie(id int, title string, year int) api.Movie {
	return api.Movie{ID: id, Title: title, Year: api.Year(year), Image: strings.ToLower(title) + ".jpg"}
}

/*──────────────────────────── list ─────────────────────────────────────────*/

func TestList_NoTokenGoesToLogin(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.Get("/movies")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Location)
	assert.Zero(t, h.API.CallCount())
}

func TestList_Populated(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()
	h.API.Page = &api.MoviePage{Movies: []api.Movie{movie(1, "Heat", 1995), movie(2, "Ronin", 1998)}, Total: 10}

	res := h.Get("/movies?page=2")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Heat")
	assert.Contains(t, res.Body, "1998")
	assert.Contains(t, res.Body, `href="/movies/edit/1"`)
	assert.Contains(t, res.Body, `src="http://api.test/uploads/heat.jpg"`)
	assert.Contains(t, res.Body, `aria-label="Add a new movie"`, "header add button")
	assert.Contains(t, res.Body, `href="/movies?page=1" rel="prev"`)
	assert.Contains(t, res.Body, `aria-current="page">2</a>`)
	assert.Contains(t, res.Body, `<span class="disabled" aria-disabled="true">Next</span>`)
	assert.Contains(t, res.Body, `action="/logout"`)
}

func TestList_Empty(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()
	h.API.Page = &api.MoviePage{}

	res := h.Get("/movies")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Your movie list is empty")
	assert.NotContains(t, res.Body, `aria-label="Add a new movie"`)
	assert.NotContains(t, res.Body, `class="pager"`)
}

func TestList_FailureDropsTokenAndGoesToLogin(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()
	h.API.Err = &api.Error{Status: http.StatusUnauthorized, Message: "Token expired"}

	res := h.Get("/movies")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Location)

	res = h.Get("/movies")
	assert.Equal(t, "/login", res.Location)
	assert.Equal(t, 1, h.API.CallCount(), "second visit has no token, so no request")
}

/*──────────────────────────── create ───────────────────────────────────────*/

func TestCreate_Page(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.Get("/movies/create")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Create a new movie")
	assert.Contains(t, res.Body, `enctype="multipart/form-data"`)
	assert.Contains(t, res.Body, `type="file"`)
	assert.Contains(t, res.Body, "Drop an image here")
	assert.Contains(t, res.Body, `href="/movies">Cancel</a>`)
}

func TestCreate_RejectsNonImage(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostMultipart("/movies/create",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1995"}},
		"movie_image", "poster.pdf", []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, "Choose a PNG, JPEG, GIF or WebP image.")
	assert.Zero(t, h.API.CallCount())
}

func TestCreate_MissingImage(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostMultipart("/movies/create",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1995"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, "Image is required")
	assert.Contains(t, res.Body, `value="Heat"`)
	assert.Zero(t, h.API.CallCount())
}

func TestCreate_Success(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostMultipart("/movies/create",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1995"}}, "movie_image", "heat.gif", gif)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/movies", res.Location)

	require.Len(t, h.API.Drafts, 1)
	d := h.API.Drafts[0]
	assert.Equal(t, "Heat", d.Title)
	assert.Equal(t, "1995", d.Year)
	require.NotNil(t, d.Image)
	assert.Equal(t, "heat.gif", d.Image.Name)
}

func TestCreate_FailureKeepsDraftWithPreview(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.API.Err = &api.Error{Status: http.StatusBadRequest, Message: "Title already exists"}

	res := h.PostMultipart("/movies/create",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1995"}}, "movie_image", "heat.gif", gif)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Title already exists")
	assert.Contains(t, res.Body, `value="Heat"`)
	assert.Contains(t, res.Body, `src="data:image/`)

	// Retry without choosing the file again: the stashed image is sent.
	h.API.Err = nil
	res = h.PostMultipart("/movies/create",
		url.Values{"movie_title": {"Heat (1995)"}, "movie_publishing_year": {"1995"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	require.Len(t, h.API.Drafts, 2)
	require.NotNil(t, h.API.Drafts[1].Image)
	assert.Equal(t, "heat.gif", h.API.Drafts[1].Image.Name)
}

func TestCreate_StaleCSRF(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostRaw("/movies/create", url.Values{"movie_title": {"Heat"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, msgStaleForm)
	assert.Contains(t, res.Body, `value="Heat"`)
	assert.Zero(t, h.API.CallCount())
}

/*──────────────────────────── edit ─────────────────────────────────────────*/

func TestEdit_Prefill(t *testing.T) {
	h := componenttest.New(t, &Component{})
	m := movie(7, "Heat", 1995)
	h.API.Movie = &m

	res := h.Get("/movies/edit/7")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, `action="/movies/edit/7"`)
	assert.Contains(t, res.Body, `value="Heat"`)
	assert.Contains(t, res.Body, `value="1995"`)
	assert.Contains(t, res.Body, `src="http://api.test/uploads/heat.jpg"`)
	assert.Contains(t, res.Body, ">Update</button>")
}

func TestEdit_BadID(t *testing.T) {
	h := componenttest.New(t, &Component{})
	for _, p := range []string{"/movies/edit/abc", "/movies/edit/0", "/movies/edit/-3"} {
		assert.Equal(t, http.StatusNotFound, h.Get(p).Code, p)
	}
	assert.Zero(t, h.API.CallCount())
}

func TestEdit_LoadFailure(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()
	h.API.Err = &api.Error{Status: http.StatusNotFound}

	res := h.Get("/movies/edit/9")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/movies", res.Location)
}

func TestEdit_NoChangesStaysWithoutRequest(t *testing.T) {
	h := componenttest.New(t, &Component{})
	m := movie(7, "Heat", 1995)
	h.API.Movie = &m
	require.Equal(t, http.StatusOK, h.Get("/movies/edit/7").Code)

	res := h.PostMultipart("/movies/edit/7",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1995"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "No changes made. Movie already up to date!")
	assert.Equal(t, []string{"get"}, h.API.Calls)
}

func TestEdit_ChangedTitleUpdates(t *testing.T) {
	h := componenttest.New(t, &Component{})
	m := movie(7, "Heat", 1995)
	h.API.Movie = &m
	h.Get("/movies/edit/7")

	res := h.PostMultipart("/movies/edit/7",
		url.Values{"movie_title": {"Heat 2"}, "movie_publishing_year": {"1995"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/movies", res.Location)
	require.Len(t, h.API.Drafts, 1)
	assert.Equal(t, "Heat 2", h.API.Drafts[0].Title)
	assert.Nil(t, h.API.Drafts[0].Image, "image only sent when newly chosen")
}

func TestEdit_FailureShowsErrorField(t *testing.T) {
	h := componenttest.New(t, &Component{})
	m := movie(7, "Heat", 1995)
	h.API.Movie = &m
	h.Get("/movies/edit/7")

	h.API.Err = &api.Error{Status: http.StatusBadRequest, Message: "Bad Request", Detail: "Year out of range"}
	res := h.PostMultipart("/movies/edit/7",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"1895"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Year out of range")
	assert.Contains(t, res.Body, `value="1895"`)
}

func TestEdit_InvalidYear(t *testing.T) {
	h := componenttest.New(t, &Component{})
	m := movie(7, "Heat", 1995)
	h.API.Movie = &m
	h.Get("/movies/edit/7")

	res := h.PostMultipart("/movies/edit/7",
		url.Values{"movie_title": {"Heat"}, "movie_publishing_year": {"19a5"}}, "movie_image", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, "Must be a 4-digit year")
	assert.Equal(t, []string{"get"}, h.API.Calls)
}
