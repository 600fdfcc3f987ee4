package catalog

import (
	"context"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/pager"
)

const msgListFail = "Failed to load movies. Please sign in again."

// Card is one movie tile.
type Card struct {
	ID       int
	Title    string
	Year     string
	ImageURL string
	EditHref string
}

// ListView is the state of the movie list page.
//
// Loading is the "request in flight" state.  Pages are rendered after Load
// returns, so it is always false by the time a template sees it.
type ListView struct {
	Movies     []Card
	Page       int
	TotalPages int
	Loading    bool
	Pager      pager.Control
	AddHref    string
}

// Empty reports whether the current page has no movies.  The page then
// shows the empty-state call to action and hides the header add button.
func (v ListView) Empty() bool { return len(v.Movies) == 0 }

// ListResult pairs the view with the outcome.
type ListResult struct {
	Outcome
	View ListView
}

// List drives the movie list page.
type List struct {
	API      API
	Sessions Sessions
}

// Load fetches one page.  Without a token nothing is requested and the
// browser goes to the login page.  Any fetch failure is treated as an
// authentication problem: the token is dropped and the browser goes to the
// login page with the server message (or a generic one).
func (c *List) Load(ctx context.Context, page int) (res ListResult) {
	res.View = ListView{Page: page, TotalPages: 1, Loading: true, AddHref: PathCreate}
	defer func() { res.View.Loading = false }()

	if _, ok := c.Sessions.Token(ctx); !ok {
		res.Redirect = PathLogin
		return res
	}

	mp, err := c.API.ListMovies(ctx, page, pager.Limit)
	if canceled(ctx) {
		res.Canceled = true
		return res
	}
	if err != nil {
		if api.RequiresLogin(err) {
			logger.FromContext(ctx).Infow("list fetch failed; sending to login",
				"page", page, "status", api.StatusOf(err), "err", err)
			if rerr := c.Sessions.RemoveToken(ctx); rerr != nil {
				logger.FromContext(ctx).Warnw("drop session token", "err", rerr)
			}
			res.Redirect = PathLogin
			res.Notice = message.Fail(api.MessageOr(err, msgListFail))
		}
		return res
	}

	total := pager.TotalPages(mp.Total, pager.Limit)
	if page > total && mp.Total > 0 {
		res.Redirect = ListPath(total)
		return res
	}

	cards := make([]Card, 0, len(mp.Movies))
	for _, m := range mp.Movies {
		cards = append(cards, Card{
			ID:       m.ID,
			Title:    m.Title,
			Year:     m.Year.String(),
			ImageURL: c.API.ImageURL(m.Image),
			EditHref: EditPath(m.ID),
		})
	}

	res.View.Movies = cards
	res.View.TotalPages = total
	res.View.Pager = pager.Build(page, total, ListPath)
	return res
}

// Logout forgets the token locally.  No API call is made and it always
// succeeds from the browser's point of view.
func (c *List) Logout(ctx context.Context) Outcome {
	if err := c.Sessions.RemoveToken(ctx); err != nil {
		logger.FromContext(ctx).Warnw("logout: drop session token", "err", err)
	}
	return Outcome{Redirect: PathLogin}
}
