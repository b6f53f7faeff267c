package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testPNG() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 12; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 20), uint8(y * 30), 0x40, 0xff})
		}
	}
	return img
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"http://example.com/a.png", true},
		{"https://example.com/a.jpg", true},
		{"photo.jpg", false},
		{"/tmp/http.png", false},
		{"ftp://example.com/a.png", false},
	}
	for _, tc := range tests {
		if got := IsURL(tc.ref); got != tc.want {
			t.Errorf("IsURL(%q) = %v, want %v", tc.ref, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, testPNG()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := New("test").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("size = %dx%d, want 12x7", b.Dx(), b.Dy())
	}
}

func TestLoadURL(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, testPNG())
	}))
	defer srv.Close()

	l := New("1.2.3", WithClient(srv.Client()), WithHeader("Authorization", "Bearer x"))
	img, err := l.Load(context.Background(), srv.URL+"/poster.png")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("size = %dx%d, want 12x7", b.Dx(), b.Dy())
	}
	if gotUA != "postertile/1.2.3" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAuth != "Bearer x" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestLoadURLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	l := New("test", WithClient(srv.Client()))

	_, err := l.Load(context.Background(), srv.URL+"/missing.png")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Load() error = %v, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fe.StatusCode)
	}

	if _, err := l.Load(context.Background(), srv.URL+"/garbage.png"); err == nil {
		t.Error("Load() accepted a non-image body")
	}
}

func TestLoadURLCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		png.Encode(w, testPNG())
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("test", WithClient(srv.Client())).Load(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}
