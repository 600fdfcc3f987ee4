// Package componenttest runs a single component behind a real session
// middleware and a fake movie API, for handler tests.
package componenttest

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/component"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/session"
	"github.com/yanizio/movienest/internal/view"
)

// FakeAPI records calls and answers from its fields.
type FakeAPI struct {
	mu     sync.Mutex
	Calls  []string
	Drafts []api.MovieDraft

	LoginResult *api.LoginResult
	Page        *api.MoviePage
	Movie       *api.Movie
	Err         error
}

func (f *FakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Err
}

// CallCount returns how many calls were recorded.
func (f *FakeAPI) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeAPI) Login(context.Context, api.Credentials) (*api.LoginResult, error) {
	if err := f.record("login"); err != nil {
		return nil, err
	}
	return f.LoginResult, nil
}

func (f *FakeAPI) ListMovies(context.Context, int, int) (*api.MoviePage, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return f.Page, nil
}

func (f *FakeAPI) GetMovie(context.Context, int) (*api.Movie, error) {
	if err := f.record("get"); err != nil {
		return nil, err
	}
	return f.Movie, nil
}

func (f *FakeAPI) CreateMovie(_ context.Context, d api.MovieDraft) error {
	f.mu.Lock()
	f.Drafts = append(f.Drafts, d)
	f.mu.Unlock()
	return f.record("create")
}

func (f *FakeAPI) UpdateMovie(_ context.Context, _ int, d api.MovieDraft) error {
	f.mu.Lock()
	f.Drafts = append(f.Drafts, d)
	f.mu.Unlock()
	return f.record("update")
}

func (f *FakeAPI) ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return "http://api.test/uploads/" + name
}

// Harness serves one component.
type Harness struct {
	t      *testing.T
	API    *FakeAPI
	Server *httptest.Server
	Client *http.Client
}

// signInPath stores a token in the browser's session without an API call;
// csrfPath mints a form token for the browser's session.
const (
	signInPath = "/__test/sign-in"
	csrfPath   = "/__test/csrf"
)

// New initialises c with fresh dependencies and starts a server.  The
// client keeps cookies and does not follow redirects.
func New(t *testing.T, c component.Component) *Harness {
	t.Helper()

	sess, err := session.New(session.Options{Lifetime: time.Hour})
	require.NoError(t, err)
	fake := &FakeAPI{}
	require.NoError(t, c.Init(component.Deps{API: fake, Sessions: sess, Views: view.New()}))

	r := chi.NewRouter()
	r.Use(sess.LoadAndSave)
	r.Get(signInPath, func(w http.ResponseWriter, r *http.Request) {
		if err := sess.SetToken(r.Context(), "tok"); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	r.Get(csrfPath, func(w http.ResponseWriter, r *http.Request) {
		tok, err := form.GenerateToken(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, tok)
	})
	require.NoError(t, component.Mount(r, []component.Component{c}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &Harness{t: t, API: fake, Server: srv, Client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar:           jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

// OtherBrowser returns a harness on the same server with its own cookie
// jar, i.e. a separate browser session.
func (h *Harness) OtherBrowser() *Harness {
	h.t.Helper()
	return &Harness{t: h.t, API: h.API, Server: h.Server, Client: newClient(h.t)}
}

// CSRFToken returns a form token valid for this browser's session.
func (h *Harness) CSRFToken() string {
	h.t.Helper()
	res := h.Get(csrfPath)
	require.Equal(h.t, http.StatusOK, res.Code, res.Body)
	return res.Body
}

// SignIn gives the harness browser a stored token.
func (h *Harness) SignIn() {
	h.t.Helper()
	res := h.Get(signInPath)
	require.Equal(h.t, http.StatusOK, res.Code)
}

// Result is a buffered response.
type Result struct {
	Code     int
	Location string
	Body     string
}

// Get requests path.
func (h *Harness) Get(path string) Result {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.Server.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

// PostForm posts vals urlencoded with a valid CSRF token added.
func (h *Harness) PostForm(path string, vals url.Values) Result {
	h.t.Helper()
	vals = h.withCSRF(vals)
	req, err := http.NewRequest(http.MethodPost, h.Server.URL+path, strings.NewReader(vals.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

// PostRaw posts vals urlencoded as given (no CSRF token added).
func (h *Harness) PostRaw(path string, vals url.Values) Result {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.Server.URL+path, strings.NewReader(vals.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

// PostMultipart posts vals and, when data is non-nil, a file under field.
func (h *Harness) PostMultipart(path string, vals url.Values, field, filename string, data []byte) Result {
	h.t.Helper()
	vals = h.withCSRF(vals)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range vals {
		for _, v := range vs {
			require.NoError(h.t, mw.WriteField(k, v))
		}
	}
	if data != nil {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(h.t, err)
		_, err = fw.Write(data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.Server.URL+path, &body)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *Harness) do(req *http.Request) Result {
	h.t.Helper()
	res, err := h.Client.Do(req)
	require.NoError(h.t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(h.t, err)
	return Result{Code: res.StatusCode, Location: res.Header.Get("Location"), Body: string(b)}
}

func (h *Harness) withCSRF(vals url.Values) url.Values {
	h.t.Helper()
	out := url.Values{}
	for k, v := range vals {
		out[k] = append([]string(nil), v...)
	}
	out.Set("csrf_token", h.CSRFToken())
	return out
}
