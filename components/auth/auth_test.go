package auth

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/component/componenttest"
)

func creds() url.Values {
	return url.Values{"email": {"ana@example.com"}, "password": {"hunter2"}}
}

func TestLoginPage(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.Get("/login")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "<title>Sign in · MovieNest</title>")
	assert.Contains(t, res.Body, `name="email"`)
	assert.Contains(t, res.Body, `type="password"`)
	assert.Contains(t, res.Body, `name="csrf_token"`)

	res = h.Get("/")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Location)
}

func TestLogin_StoredTokenSkipsForm(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()

	res := h.Get("/login")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/movies", res.Location)
	assert.Zero(t, h.API.CallCount(), "no server check of the token")
}

func TestLogin_Success(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.API.LoginResult = &api.LoginResult{Status: http.StatusOK, AccessToken: "abc"}

	res := h.PostForm("/login", creds())
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/movies", res.Location)

	// Token is stored: the login page now sends the browser on.
	res = h.Get("/login")
	assert.Equal(t, "/movies", res.Location)
}

func TestLogin_RejectedShowsServerMessage(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.API.Err = &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

	res := h.PostForm("/login", creds())
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Invalid credentials")
	assert.Contains(t, res.Body, `value="ana@example.com"`)
	assert.NotContains(t, res.Body, "hunter2")

	res = h.Get("/login")
	assert.Equal(t, http.StatusOK, res.Code, "no token stored")
}

func TestLogin_ValidationErrors(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostForm("/login", url.Values{"email": {"nope"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, "Invalid email")
	assert.Contains(t, res.Body, "Password is required")
	assert.Zero(t, h.API.CallCount())
}

func TestLogin_MissingCSRF(t *testing.T) {
	h := componenttest.New(t, &Component{})

	res := h.PostRaw("/login", creds())
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body, msgStaleForm)
	assert.Zero(t, h.API.CallCount())
}

func TestLogout(t *testing.T) {
	h := componenttest.New(t, &Component{})
	h.SignIn()

	res := h.PostRaw("/logout", url.Values{})
	assert.Equal(t, http.StatusForbidden, res.Code, "logout needs a CSRF token")

	res = h.PostForm("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Location)

	res = h.Get("/login")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Zero(t, h.API.CallCount(), "logout never calls the API")
}

func TestLogout_RejectsTokenFromAnotherSession(t *testing.T) {
	attacker := componenttest.New(t, &Component{})
	victim := attacker.OtherBrowser()
	victim.SignIn()

	res := victim.PostRaw("/logout", url.Values{"csrf_token": {attacker.CSRFToken()}})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = victim.Get("/login")
	assert.Equal(t, http.StatusSeeOther, res.Code, "victim must still be signed in")
	assert.Equal(t, "/movies", res.Location)
}

func TestMigrations(t *testing.T) {
	m := (&Component{}).Migrations()
	require.Len(t, m, 1)
	assert.Contains(t, m[0], "CREATE TABLE IF NOT EXISTS sessions")
}
