package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/upload"
)

func newCtx(t *testing.T, s *Store) context.Context {
	t.Helper()
	ctx, err := s.Manager().Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ctx
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Options{CookieName: "test_session"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestToken_Lifecycle(t *testing.T) {
	s := newStore(t)
	ctx := newCtx(t, s)

	if _, ok := s.Token(ctx); ok {
		t.Fatal("fresh session must be logged out")
	}
	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if tok, ok := s.Token(ctx); !ok || tok != "abc" {
		t.Fatalf("Token = %q, %v", tok, ok)
	}
	if err := s.RemoveToken(ctx); err != nil {
		t.Fatalf("RemoveToken: %v", err)
	}
	if _, ok := s.Token(ctx); ok {
		t.Fatal("token should be gone")
	}
}

func TestStashUpload(t *testing.T) {
	s := newStore(t)
	ctx := newCtx(t, s)

	if s.StashedUpload(ctx, SlotCreate) != nil {
		t.Fatal("nothing stashed yet")
	}
	s.StashUpload(ctx, SlotCreate, nil)
	if s.StashedUpload(ctx, SlotCreate) != nil {
		t.Fatal("nil upload must not be stashed")
	}

	s.StashUpload(ctx, SlotCreate, upload.New("a.gif", []byte("GIF89a;")))
	got := s.StashedUpload(ctx, SlotCreate)
	if got == nil || got.Name != "a.gif" || got.ContentType != "image/gif" {
		t.Fatalf("StashedUpload = %+v", got)
	}
	if s.StashedUpload(ctx, SlotEdit(7)) != nil {
		t.Fatal("create draft visible in edit slot")
	}

	s.DropUpload(ctx, SlotCreate)
	if s.StashedUpload(ctx, SlotCreate) != nil {
		t.Fatal("DropUpload left data behind")
	}
}

func TestOriginals(t *testing.T) {
	s := newStore(t)
	ctx := newCtx(t, s)

	want := Original{Title: "Heat", Year: "1995", Image: "heat.jpg"}
	s.RememberOriginal(ctx, 7, want)

	if got, ok := s.OriginalFor(ctx, 7); !ok || got != want {
		t.Fatalf("OriginalFor(7) = %+v, %v", got, ok)
	}
	if _, ok := s.OriginalFor(ctx, 8); ok {
		t.Fatal("id 8 was never loaded")
	}
	s.ForgetOriginal(ctx, 7)
	if _, ok := s.OriginalFor(ctx, 7); ok {
		t.Fatal("ForgetOriginal did not forget")
	}
}

func TestRemember_PersistentCookie(t *testing.T) {
	s := newStore(t)

	h := s.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.SetToken(r.Context(), "abc")
		s.Remember(r.Context(), r.URL.Query().Get("remember") == "1")
	}))

	cookie := func(q string) string {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login"+q, nil))
		return rr.Header().Get("Set-Cookie")
	}

	if c := cookie("?remember=1"); !strings.Contains(c, "Expires=") {
		t.Errorf("remember me should persist the cookie: %s", c)
	}
	if c := cookie(""); strings.Contains(c, "Expires=") {
		t.Errorf("cookie should be browser-session only: %s", c)
	}
	if c := cookie(""); !strings.HasPrefix(c, "test_session=") {
		t.Errorf("cookie name not applied: %s", c)
	}
}

func TestLoadAndSave_BindsCSRFToSession(t *testing.T) {
	s := newStore(t)
	h := s.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			tok, err := form.GenerateToken(r.Context())
			if err != nil {
				t.Errorf("GenerateToken: %v", err)
			}
			_, _ = io.WriteString(w, tok)
			return
		}
		if !form.VerifyToken(r.Context(), r.URL.Query().Get("tok")) {
			w.WriteHeader(http.StatusForbidden)
		}
	}))

	// visit returns the minted token and the session cookie.
	visit := func() (string, *http.Cookie) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
		cs := rr.Result().Cookies()
		if len(cs) == 0 {
			t.Fatal("no session cookie issued")
		}
		return rr.Body.String(), cs[0]
	}
	post := func(tok string, c *http.Cookie) int {
		r := httptest.NewRequest(http.MethodPost, "/logout?tok="+tok, nil)
		r.AddCookie(c)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	tokA, cookieA := visit()
	_, cookieB := visit()

	if code := post(tokA, cookieB); code != http.StatusForbidden {
		t.Errorf("token from session A in session B: code = %d", code)
	}
	if code := post(tokA, cookieA); code != http.StatusOK {
		t.Errorf("token in its own session: code = %d", code)
	}
}

func TestSetToken_RotatesCSRFBinding(t *testing.T) {
	s := newStore(t)
	ctx := newCtx(t, s)

	before := s.binding(ctx)
	if before == "" || s.binding(ctx) != before {
		t.Fatal("binding must be created once and then reused")
	}
	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if s.binding(ctx) == before {
		t.Fatal("signing in must rotate the binding")
	}
}

func TestNew_BackendErrors(t *testing.T) {
	if _, err := New(Options{Backend: "mysql"}); err == nil {
		t.Error("mysql without DB must fail")
	}
	if _, err := New(Options{Backend: "redis"}); err == nil {
		t.Error("unknown backend must fail")
	}
}
