package catalog

import (
	"context"
	"strings"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/message"
	"github.com/yanizio/movienest/internal/metrics"
	"github.com/yanizio/movienest/internal/preview"
	"github.com/yanizio/movienest/internal/session"
)

const (
	msgLoadFail   = "Failed to load movie."
	msgNoChanges  = "No changes made. Movie already up to date!"
	msgUpdated    = "Movie updated successfully!"
	msgUpdateFail = "Something went wrong."
)

// EditView is the state of the edit page beyond the form values.
type EditView struct {
	ID       int
	ImageURL string // existing server image, shown when no preview exists
}

// EditResult pairs the view with the outcome.
type EditResult struct {
	Outcome
	View EditView
}

// Edit drives the edit-movie page.
type Edit struct {
	API      API
	Sessions Sessions
}

// Load fetches movie id, pre-fills the form, and remembers the original
// values for the no-op check.
func (c *Edit) Load(ctx context.Context, id int) EditResult {
	m, err := c.API.GetMovie(ctx, id)
	if canceled(ctx) {
		return EditResult{Outcome: Outcome{Canceled: true}}
	}
	if err != nil {
		logger.FromContext(ctx).Warnw("load movie failed", "id", id, "status", api.StatusOf(err), "err", err)
		return EditResult{Outcome: Outcome{Redirect: PathMovies, Notice: message.Fail(msgLoadFail)}}
	}

	orig := originalOf(m)
	c.Sessions.RememberOriginal(ctx, id, orig)
	c.Sessions.DropUpload(ctx, session.SlotEdit(id))

	return EditResult{
		Outcome: Outcome{Values: map[string]string{fieldTitle: orig.Title, fieldYear: orig.Year}},
		View:    EditView{ID: id, ImageURL: c.API.ImageURL(orig.Image)},
	}
}

// Submit compares the submission with the remembered originals.  When the
// title and year are unchanged and no new image was chosen, nothing is
// sent.  Otherwise title and year are always sent and the image only when
// newly chosen.
func (c *Edit) Submit(ctx context.Context, id int, sub *form.Submission) EditResult {
	log := logger.FromContext(ctx)

	orig, ok := c.Sessions.OriginalFor(ctx, id)
	if !ok {
		// Session expired between GET and POST; fetch what the form showed.
		m, err := c.API.GetMovie(ctx, id)
		if canceled(ctx) {
			return EditResult{Outcome: Outcome{Canceled: true}}
		}
		if err != nil {
			log.Warnw("reload movie for edit failed", "id", id, "err", err)
			return EditResult{Outcome: Outcome{Redirect: PathMovies, Notice: message.Fail(msgLoadFail)}}
		}
		orig = originalOf(m)
		c.Sessions.RememberOriginal(ctx, id, orig)
	}
	view := EditView{ID: id, ImageURL: c.API.ImageURL(orig.Image)}

	slot := session.SlotEdit(id)
	img := draftImage(ctx, c.Sessions, slot, sub, fieldImage)
	pending := preview.Start(img)

	clean, errs := form.ValidateForm(FormEdit, sub)
	if len(errs) > 0 {
		c.Sessions.StashUpload(ctx, slot, img)
		return EditResult{
			Outcome: Outcome{Errors: errs, Values: echo(sub, fieldTitle, fieldYear), Preview: pending},
			View:    view,
		}
	}
	values := map[string]string{fieldTitle: clean[fieldTitle], fieldYear: clean[fieldYear]}

	titleChanged := clean[fieldTitle] != strings.TrimSpace(orig.Title)
	yearChanged := clean[fieldYear] != orig.Year
	imageChanged := !img.Empty()

	if !titleChanged && !yearChanged && !imageChanged {
		metrics.NoopEditsTotal.Inc()
		return EditResult{
			Outcome: Outcome{Notice: message.OK(msgNoChanges), Values: values},
			View:    view,
		}
	}

	err := c.API.UpdateMovie(ctx, id, api.MovieDraft{
		Title: clean[fieldTitle],
		Year:  clean[fieldYear],
		Image: img,
	})
	if canceled(ctx) {
		return EditResult{Outcome: Outcome{Canceled: true}}
	}
	if err != nil {
		log.Warnw("update movie failed", "id", id, "status", api.StatusOf(err), "err", err)
		c.Sessions.StashUpload(ctx, slot, img)
		return EditResult{
			Outcome: Outcome{
				Notice:  message.Fail(api.DetailOr(err, msgUpdateFail)),
				Values:  values,
				Preview: pending,
			},
			View: view,
		}
	}

	c.Sessions.DropUpload(ctx, slot)
	c.Sessions.ForgetOriginal(ctx, id)
	return EditResult{Outcome: Outcome{Redirect: PathMovies, Notice: message.OK(msgUpdated)}}
}

func originalOf(m *api.Movie) session.Original {
	return session.Original{Title: m.Title, Year: m.Year.String(), Image: m.Image}
}
