// Package preview turns a selected image into an inline thumbnail (data
// URL) shown in place of the drop-zone placeholder.
//
// Generation runs on its own goroutine.  Callers start it as soon as the
// upload is parsed and only collect the result when a page is rendered;
// the API submission never waits for it.
package preview

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/yanizio/movienest/internal/upload"
)

// MaxSide bounds the thumbnail's longer edge in pixels.
const MaxSide = 480

// Pending is an in-flight preview.  The zero value and nil are "no preview".
type Pending struct {
	done chan struct{}
	url  string
}

// Start begins generating a preview of f.  A nil or empty f yields nil.
func Start(f *upload.File) *Pending {
	if f.Empty() {
		return nil
	}
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.url = DataURL(f)
	}()
	return p
}

// Wait returns the data URL once ready, or "" when it is not ready within
// d.  Safe on nil.
func (p *Pending) Wait(d time.Duration) string {
	if p == nil || p.done == nil {
		return ""
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.done:
		return p.url
	case <-t.C:
		return ""
	}
}

// DataURL renders f as a JPEG thumbnail data URL.  Images the decoder does
// not understand are inlined as-is when their type is image/*; anything
// else yields "".
func DataURL(f *upload.File) string {
	if f.Empty() {
		return ""
	}
	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		if strings.HasPrefix(f.ContentType, "image/") {
			return encode(baseType(f.ContentType), f.Data)
		}
		return ""
	}

	thumb := fit(img)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return ""
	}
	return encode("image/jpeg", buf.Bytes())
}

func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxSide && b.Dy() <= MaxSide {
		return img
	}
	return imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
}

func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i != -1 {
		return strings.TrimSpace(ct[:i])
	}
	return ct
}

func encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
