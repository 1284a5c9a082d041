package images

import (
	"testing"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">
<rect x="10" y="10" width="180" height="80" fill="black"/>
</svg>`

func TestRasterizeSVGToImage(t *testing.T) {
	cases := []struct {
		name           string
		targetW        int
		targetH        int
		wantW, wantH   int
	}{
		{"intrinsic size", 0, 0, 200, 100},
		{"width only keeps aspect", 400, 0, 400, 200},
		{"height only keeps aspect", 0, 50, 100, 50},
		{"fit into box", 400, 100, 200, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := RasterizeSVGToImage([]byte(testSVG), tc.targetW, tc.targetH)
			if err != nil {
				t.Fatalf("rasterize failed: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
				t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}

func TestRasterizeSVGToImageClamped(t *testing.T) {
	img, err := RasterizeSVGToImage([]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100000 100000"></svg>`), 0, 0)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > maxRasterDim || b.Dy() > maxRasterDim {
		t.Errorf("raster not clamped: %dx%d", b.Dx(), b.Dy())
	}
}

func TestRasterizeSVGToImageBad(t *testing.T) {
	if _, err := RasterizeSVGToImage([]byte("not svg at all"), 0, 0); err == nil {
		t.Fatal("expected error for invalid SVG")
	}
}
