package preview

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/yanizio/movienest/internal/upload"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDataURL_Downscales(t *testing.T) {
	url := DataURL(upload.New("big.png", pngOf(t, 1200, 600)))
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected prefix: %.40s", url)
	}

	img, err := imaging.Decode(base64Reader(t, strings.TrimPrefix(url, prefix)))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := img.Bounds(); b.Dx() != MaxSide || b.Dy() != MaxSide/2 {
		t.Errorf("thumbnail = %dx%d", b.Dx(), b.Dy())
	}
}

func TestDataURL_NotAnImage(t *testing.T) {
	if got := DataURL(upload.New("notes.txt", []byte("hello"))); got != "" {
		t.Errorf("text file produced preview %.30s", got)
	}
	if got := DataURL(nil); got != "" {
		t.Error("nil upload produced preview")
	}
}

func TestStartWait(t *testing.T) {
	var p *Pending
	if p.Wait(time.Millisecond) != "" {
		t.Error("nil Pending must be empty")
	}
	if Start(nil) != nil {
		t.Error("Start(nil) should be nil")
	}

	p = Start(upload.New("a.png", pngOf(t, 4, 4)))
	if got := p.Wait(5 * time.Second); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("Wait = %.40s", got)
	}
}

func base64Reader(t *testing.T, s string) io.Reader {
	t.Helper()
	return base64.NewDecoder(base64.StdEncoding, strings.NewReader(s))
}
