package upload

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// header builds a real *multipart.FileHeader by round-tripping a request.
func header(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("movie_image", name)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return req.MultipartForm.File["movie_image"][0]
}

func TestFromHeader_SniffsPNG(t *testing.T) {
	f, err := FromHeader(header(t, "dir/poster.png", pngBytes(t)))
	if err != nil {
		t.Fatalf("FromHeader: %v", err)
	}
	if f.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", f.ContentType)
	}
	if f.Name != "poster.png" {
		t.Errorf("Name = %q", f.Name)
	}
	if f.Empty() {
		t.Error("file should not be empty")
	}
}

func TestFromHeader_EmptySelection(t *testing.T) {
	f, err := FromHeader(header(t, "empty.png", nil))
	if err != nil {
		t.Fatalf("FromHeader: %v", err)
	}
	if !f.Empty() {
		t.Errorf("expected empty selection, got %+v", f)
	}
	if f, _ := FromHeader(nil); f != nil {
		t.Error("nil header must yield nil file")
	}
}

func TestFromHeader_RejectsNonImage(t *testing.T) {
	for name, data := range map[string][]byte{
		"doc.pdf":    []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"),
		"notes.txt":  []byte("just some text"),
		"poster.png": []byte("not really a png"),
	} {
		if _, err := FromHeader(header(t, name, data)); err != ErrNotImage {
			t.Errorf("%s: err = %v, want ErrNotImage", name, err)
		}
	}
}
