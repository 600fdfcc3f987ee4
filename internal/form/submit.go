// internal/form/submit.go
//
// MovieNest – Forms subsystem: request parsing and the CSRF gate.
//
// Context
//   Handlers want one call that parses the POST body (urlencoded or
//   multipart), rejects forged posts, and buffers any uploaded files.
//   ParseSubmission provides that, leaving field rules to ValidateForm so
//   controllers can be exercised with a hand-built Submission.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/movienest/internal/upload"
)

// ErrCSRF is returned when the hidden token is missing, expired, or forged.
var ErrCSRF = errors.New("csrf token invalid")

const msgNotImage = "Choose a PNG, JPEG, GIF or WebP image."

// bodyLimit caps the whole request: one image plus headroom for text.
const bodyLimit = upload.MaxBytes + 1<<20

// Submission is one parsed POST.
type Submission struct {
	Values url.Values
	Files  map[string]*upload.File
	Errors []ErrorField // per-field parse problems (oversized file)
}

// File returns the upload posted under name, or nil.
func (s *Submission) File(name string) *upload.File {
	if s == nil || s.Files == nil {
		return nil
	}
	return s.Files[name]
}

// ParseSubmission parses r and verifies its CSRF token against the
// session binding on r's context.  Oversized files
// become field errors instead of failing the whole request.
func ParseSubmission(w http.ResponseWriter, r *http.Request) (*Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	sub := &Submission{Files: map[string]*upload.File{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(bodyLimit); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}
	sub.Values = r.PostForm

	if !VerifyToken(r.Context(), sub.Values.Get(csrfField)) {
		return nil, ErrCSRF
	}

	if r.MultipartForm != nil {
		for name, fhs := range r.MultipartForm.File {
			if len(fhs) == 0 {
				continue
			}
			f, err := upload.FromHeader(fhs[0])
			switch {
			case errors.Is(err, upload.ErrTooLarge):
				sub.Errors = append(sub.Errors, ErrorField{name, "Image must be 10 MB or smaller."})
			case errors.Is(err, upload.ErrNotImage):
				sub.Errors = append(sub.Errors, ErrorField{name, msgNotImage})
			case err != nil:
				return nil, err
			case f != nil:
				sub.Files[name] = f
			}
		}
	}
	return sub, nil
}
