package render

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"wxr2pdf/config"
)

func testImagesConfig() *config.ImagesConfig {
	return &config.ImagesConfig{
		Directory:   "content",
		ScaleFactor: 1,
		MaxWidthPx:  200,
		JPEGQuality: 85,
	}
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
}

func TestImageLoaderPNGPassthrough(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "2020/01/small.png", 100, 50)

	l := newImageLoader(dir, testImagesConfig(), zaptest.NewLogger(t))
	img, err := l.load("2020/01/small.png")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if img.typ != "PNG" || img.w != 100 || img.h != 50 {
		t.Errorf("got %s %dx%d, want PNG 100x50 passed through", img.typ, img.w, img.h)
	}
}

func TestImageLoaderDownscale(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "big.png", 800, 400)

	l := newImageLoader(dir, testImagesConfig(), zaptest.NewLogger(t))
	img, err := l.load("big.png")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	// anything over max_width_px is resized and lands as JPEG
	if img.typ != "JPEG" || img.w != 200 || img.h != 100 {
		t.Errorf("got %s %dx%d, want JPEG 200x100", img.typ, img.w, img.h)
	}
}

func TestImageLoaderSVG(t *testing.T) {
	dir := t.TempDir()
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><rect width="100" height="100"/></svg>`
	if err := os.WriteFile(filepath.Join(dir, "diagram.svg"), []byte(svg), 0600); err != nil {
		t.Fatalf("write svg: %v", err)
	}

	l := newImageLoader(dir, testImagesConfig(), zaptest.NewLogger(t))
	img, err := l.load("diagram.svg")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if img.typ != "JPEG" || img.w != 200 {
		t.Errorf("got %s %dx%d, want rasterized JPEG at max width", img.typ, img.w, img.h)
	}
}

func TestImageLoaderMissing(t *testing.T) {
	l := newImageLoader(t.TempDir(), testImagesConfig(), zaptest.NewLogger(t))
	if _, err := l.load("nope.jpg"); err == nil {
		t.Fatal("expected error for missing file")
	}
	// second attempt answers from the cache, still an error
	if _, err := l.load("nope.jpg"); err == nil {
		t.Fatal("expected cached error for missing file")
	}
}

func TestImageLoaderCache(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 10, 10)

	l := newImageLoader(dir, testImagesConfig(), zaptest.NewLogger(t))
	first, err := l.load("a.png")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second, err := l.load("a.png")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached instance on repeat load")
	}
}

func TestIsSVG(t *testing.T) {
	if !isSVG([]byte("<?xml version=\"1.0\"?><svg/>"), "x.bin") {
		t.Error("content sniff failed")
	}
	if !isSVG([]byte("junk"), "logo.SVG") {
		t.Error("extension sniff failed")
	}
	if isSVG([]byte{0xFF, 0xD8, 0xFF}, "photo.jpg") {
		t.Error("jpeg misdetected as svg")
	}
}
