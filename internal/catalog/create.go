package catalog

import (
	"context"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/preview"
	"github.com/yanizio/movienest/internal/session"
)

const (
	msgCreated    = "Movie created successfully!"
	msgCreateFail = "Something went wrong. Try again."
)

const (
	fieldTitle = "movie_title"
	fieldYear  = "movie_publishing_year"
	fieldImage = "movie_image"
)

// Create drives the create-movie page.
type Create struct {
	API      API
	Sessions Sessions
}

// Show prepares an empty form.  A draft image left by an abandoned
// submission is discarded.
func (c *Create) Show(ctx context.Context) Outcome {
	c.Sessions.DropUpload(ctx, session.SlotCreate)
	return Outcome{}
}

// Submit validates the draft and posts it.  The preview of the chosen image
// starts before the upload and is only collected if the form is shown
// again.  On failure the values and the image are kept for the retry.
func (c *Create) Submit(ctx context.Context, sub *form.Submission) Outcome {
	img := draftImage(ctx, c.Sessions, session.SlotCreate, sub, fieldImage)
	pending := preview.Start(img)

	clean, errs := form.ValidateForm(FormCreate, sub)
	if len(errs) > 0 {
		c.Sessions.StashUpload(ctx, session.SlotCreate, img)
		return Outcome{Errors: errs, Values: echo(sub, fieldTitle, fieldYear), Preview: pending}
	}

	err := c.API.CreateMovie(ctx, api.MovieDraft{
		Title: clean[fieldTitle],
		Year:  clean[fieldYear],
		Image: img,
	})
	if canceled(ctx) {
		return Outcome{Canceled: true}
	}
	if err != nil {
		logger.FromContext(ctx).Warnw("create movie failed", "status", api.StatusOf(err), "err", err)
		c.Sessions.StashUpload(ctx, session.SlotCreate, img)
		return Outcome{
			Notice:  message.Fail(api.MessageOr(err, msgCreateFail)),
			Values:  map[string]string{fieldTitle: clean[fieldTitle], fieldYear: clean[fieldYear]},
			Preview: pending,
		}
	}

	c.Sessions.DropUpload(ctx, session.SlotCreate)
	return Outcome{Redirect: PathMovies, Notice: message.OK(msgCreated)}
}
