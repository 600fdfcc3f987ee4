// internal/upload/upload.go
//
// In-memory copy of one image chosen in a browser form.
//
// Context
// -------
// The movie forms post `multipart/form-data`.  Handlers turn the
// *multipart.FileHeader into a File once, and the same bytes then flow to
// the API client (multipart re-encode), the preview generator, and, when a
// submission fails, the session stash so the retry keeps the image.
//
// Content type is sniffed with gabriel-vasile/mimetype rather than trusted
// from the browser-supplied part header, and only the raster formats in
// Allowed are accepted.

package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// MaxBytes caps one image.  The multipart parser is given the same limit
// plus headroom for the text fields.
const MaxBytes = 10 << 20

// Allowed lists the accepted image types.
var Allowed = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

var (
	// ErrTooLarge is returned when the file exceeds MaxBytes.
	ErrTooLarge = errors.New("image exceeds 10 MiB")
	// ErrNotImage is returned when the sniffed type is not in Allowed.
	ErrNotImage = errors.New("upload is not a supported image")
)

// File is a fully buffered upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether f carries no bytes.  A nil File is empty.
func (f *File) Empty() bool { return f == nil || len(f.Data) == 0 }

// FromHeader reads fh into memory and sniffs its content type.  A header
// with zero size yields (nil, nil): browsers send an empty part when no
// file was chosen.
func FromHeader(fh *multipart.FileHeader) (*File, error) {
	if fh == nil || fh.Size == 0 {
		return nil, nil
	}
	if fh.Size > MaxBytes {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	if !allowed(mimetype.Detect(data)) {
		return nil, ErrNotImage
	}
	return New(fh.Filename, data), nil
}

// New wraps raw bytes, sniffing the content type.
func New(name string, data []byte) *File {
	return &File{
		Name:        filepath.Base(name),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

func allowed(m *mimetype.MIME) bool {
	for _, t := range Allowed {
		if m.Is(t) {
			return true
		}
	}
	return false
}
