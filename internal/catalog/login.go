package catalog

import (
	"context"
	"net/http"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/metrics"
)

const (
	msgLoginOK   = "Login successful"
	msgLoginFail = "Login failed"
)

// Login signs a browser in.
type Login struct {
	API      API
	Sessions Sessions
}

// Mount treats a stored token as “already signed in” without asking the
// API, and sends the browser to the list.
func (c *Login) Mount(ctx context.Context) Outcome {
	if _, ok := c.Sessions.Token(ctx); ok {
		return Outcome{Redirect: PathMovies}
	}
	return Outcome{}
}

// Submit validates credentials and exchanges them for a token.  Only an
// exact 200 stores the token; every other result keeps the browser on the
// form with an error notice.
func (c *Login) Submit(ctx context.Context, sub *form.Submission) Outcome {
	log := logger.FromContext(ctx)

	clean, errs := form.ValidateForm(FormLogin, sub)
	if len(errs) > 0 {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return Outcome{Errors: errs, Values: echo(sub, "email", "remember")}
	}
	keep := map[string]string{"email": clean["email"], "remember": clean["remember"]}

	res, err := c.API.Login(ctx, api.Credentials{Email: clean["email"], Password: clean["password"]})
	if canceled(ctx) {
		return Outcome{Canceled: true}
	}
	if err != nil {
		log.Infow("login rejected", "status", api.StatusOf(err), "err", err)
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return Outcome{Notice: message.Fail(api.MessageOr(err, msgLoginFail)), Values: keep}
	}
	if res.Status != http.StatusOK || res.AccessToken == "" {
		log.Infow("login not accepted", "status", res.Status)
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return Outcome{Notice: message.Fail(orDefault(res.Message, msgLoginFail)), Values: keep}
	}

	if err := c.Sessions.SetToken(ctx, res.AccessToken); err != nil {
		log.Errorw("store session token", "err", err)
		return Outcome{Notice: message.Fail(msgLoginFail), Values: keep}
	}
	c.Sessions.Remember(ctx, clean["remember"] == "true")

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return Outcome{
		Redirect: PathMovies,
		Notice:   message.OK(orDefault(res.Message, msgLoginOK)),
	}
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
