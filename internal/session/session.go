// internal/session/session.go
//
// MovieNest – per-browser session store.
//
// Context
//   The browser client keeps exactly one secret: the bearer token returned
//   by POST /auth/login.  It lives in a server-side session keyed by an
//   HttpOnly cookie, so it is scoped to one browser the same way origin
//   storage would be.  Absence of the token is the “logged out” state.
//
//   Every session also carries a random CSRF binding.  LoadAndSave puts it
//   on the request context so form tokens are only valid for the browser
//   they were rendered for.  It is rotated whenever the token changes.
//
//   Besides the token, the session carries two short-lived workflow values:
//   the image chosen on a failed create/edit submission (so the retry keeps
//   it), and the originals remembered when an edit form was loaded (so a
//   no-op edit is detected without another API call).
//
//   Storage is alexedwards/scs.  The default backend is the in-process
//   memstore; `session.backend: mysql` swaps in scs/mysqlstore over the
//   pool from internal/database.
//
// Notes
//   • Token is never validated here.  It stays valid until the API rejects it.
//   • SetToken and RemoveToken renew the session id (fixation defence).
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"

	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/upload"
)

const (
	keyToken      = "token"
	keyCSRF       = "csrf.binding"
	keyUploadName = "draft.image.name."
	keyUploadData = "draft.image.data."
	keyOriginal   = "edit.original."
)

// Draft slots: one stashed image per form so a failed create never leaks
// into an edit (or one movie's edit into another's).
const SlotCreate = "create"

// SlotEdit is the draft slot of the edit form for movie id.
func SlotEdit(id int) string { return "edit." + strconv.Itoa(id) }

// Options configure New.  DB is required only when Backend is "mysql".
type Options struct {
	Backend    string
	CookieName string
	Lifetime   time.Duration
	Secure     bool
	DB         *sql.DB
}

// Store adapts an scs.SessionManager to the operations the controllers use.
type Store struct {
	sm *scs.SessionManager
}

// New builds the session manager.  Cookies are browser-session cookies
// unless Remember(ctx, true) is called for that session.
func New(o Options) (*Store, error) {
	sm := scs.New()
	switch o.Backend {
	case "", "memory":
		// scs default memstore
	case "mysql":
		if o.DB == nil {
			return nil, fmt.Errorf("session: mysql backend needs a database handle")
		}
		sm.Store = mysqlstore.New(o.DB)
	default:
		return nil, fmt.Errorf("session: unknown backend %q", o.Backend)
	}

	if o.CookieName != "" {
		sm.Cookie.Name = o.CookieName
	}
	if o.Lifetime > 0 {
		sm.Lifetime = o.Lifetime
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = o.Secure
	sm.Cookie.Persist = false

	return &Store{sm: sm}, nil
}

// Manager exposes the underlying manager (flash messages, tests).
func (s *Store) Manager() *scs.SessionManager { return s.sm }

// LoadAndSave is the middleware that loads and commits the session and
// binds CSRF tokens to it.
func (s *Store) LoadAndSave(next http.Handler) http.Handler {
	return s.sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := form.WithBinding(r.Context(), s.binding(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// binding returns the session's CSRF binding, creating it on first use.
func (s *Store) binding(ctx context.Context) string {
	if b := s.sm.GetString(ctx, keyCSRF); b != "" {
		return b
	}
	b := newBinding()
	s.sm.Put(ctx, keyCSRF, b)
	return b
}

func newBinding() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

/*──────────────────────────── token ────────────────────────────*/

// Token returns the stored bearer token.
func (s *Store) Token(ctx context.Context) (string, bool) {
	tok := s.sm.GetString(ctx, keyToken)
	return tok, tok != ""
}

// SetToken stores tok under a fresh session id.
func (s *Store) SetToken(ctx context.Context, tok string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	s.sm.Put(ctx, keyToken, tok)
	s.sm.Put(ctx, keyCSRF, newBinding())
	return nil
}

// RemoveToken clears the token.  Other keys (flash) survive so the login
// page can still show a notice.
func (s *Store) RemoveToken(ctx context.Context) error {
	s.sm.Remove(ctx, keyToken)
	s.sm.Put(ctx, keyCSRF, newBinding())
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

// Remember switches the cookie between persistent and browser-session.
func (s *Store) Remember(ctx context.Context, persist bool) {
	s.sm.RememberMe(ctx, persist)
}

/*──────────────────────────── draft image ────────────────────────────*/

// StashUpload keeps f for the next submission of the form in slot.
func (s *Store) StashUpload(ctx context.Context, slot string, f *upload.File) {
	if f.Empty() {
		return
	}
	s.sm.Put(ctx, keyUploadName+slot, f.Name)
	s.sm.Put(ctx, keyUploadData+slot, f.Data)
}

// StashedUpload returns the image stashed in slot, or nil.
func (s *Store) StashedUpload(ctx context.Context, slot string) *upload.File {
	data := s.sm.GetBytes(ctx, keyUploadData+slot)
	if len(data) == 0 {
		return nil
	}
	return upload.New(s.sm.GetString(ctx, keyUploadName+slot), data)
}

// DropUpload forgets the image stashed in slot.
func (s *Store) DropUpload(ctx context.Context, slot string) {
	s.sm.Remove(ctx, keyUploadName+slot)
	s.sm.Remove(ctx, keyUploadData+slot)
}

/*──────────────────────────── edit originals ────────────────────────────*/

// Original is what an edit form showed when it was loaded.
type Original struct {
	Title string `json:"title"`
	Year  string `json:"year"`
	Image string `json:"image"`
}

// RememberOriginal records o for movie id.
func (s *Store) RememberOriginal(ctx context.Context, id int, o Original) {
	b, _ := json.Marshal(o)
	s.sm.Put(ctx, keyOriginal+strconv.Itoa(id), string(b))
}

// OriginalFor returns the remembered values for movie id.
func (s *Store) OriginalFor(ctx context.Context, id int) (Original, bool) {
	var o Original
	raw := s.sm.GetString(ctx, keyOriginal+strconv.Itoa(id))
	if raw == "" || json.Unmarshal([]byte(raw), &o) != nil {
		return Original{}, false
	}
	return o, true
}

// ForgetOriginal drops the remembered values for movie id.
func (s *Store) ForgetOriginal(ctx context.Context, id int) {
	s.sm.Remove(ctx, keyOriginal+strconv.Itoa(id))
}
