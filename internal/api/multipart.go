package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/yanizio/movienest/internal/upload"
)

// Multipart is a buffered multipart/form-data body.  Build it with
// NewMultipart, add parts, then hand it to PostMultipart / PutMultipart.
type Multipart struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

// NewMultipart returns an empty body.
func NewMultipart() *Multipart {
	m := &Multipart{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

// Field appends a text part.
func (m *Multipart) Field(name, value string) *Multipart {
	if m.err == nil {
		m.err = m.w.WriteField(name, value)
	}
	return m
}

// File appends f as a file part.  A nil or empty f is skipped.
func (m *Multipart) File(name string, f *upload.File) *Multipart {
	if m.err != nil || f.Empty() {
		return m
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, name, f.Name))
	h.Set("Content-Type", f.ContentType)

	pw, err := m.w.CreatePart(h)
	if err != nil {
		m.err = err
		return m
	}
	_, m.err = pw.Write(f.Data)
	return m
}

// ContentType returns the header value including the boundary.
func (m *Multipart) ContentType() string { return m.w.FormDataContentType() }

// Reader closes the writer and returns the encoded body.  A build error is
// surfaced through the reader so the request fails before it is sent.
func (m *Multipart) Reader() io.Reader {
	if m.err == nil {
		m.err = m.w.Close()
	}
	if m.err != nil {
		return &errReader{fmt.Errorf("build multipart: %w", m.err)}
	}
	return bytes.NewReader(m.buf.Bytes())
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
