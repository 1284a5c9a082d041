package render

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/zap"
	"golang.org/x/image/webp"

	"wxr2pdf/config"
	"wxr2pdf/utils/images"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// renderDPI is the density all processed raster images are stamped with, so
// pixel dimensions translate to the same physical size CSS assumes.
const renderDPI = 96

// loadedImage is one processed image ready for embedding: encoded bytes in a
// format the PDF writer accepts plus the pixel dimensions layout needs.
type loadedImage struct {
	name string
	data []byte
	typ  string // "JPEG", "PNG" or "GIF"
	w, h int
}

// imageLoader resolves block image references against the local uploads
// mirror. Results are cached by relative path: the layout pass and the final
// pass must see byte-identical images or pagination would drift between them.
type imageLoader struct {
	dir   string
	cfg   *config.ImagesConfig
	log   *zap.Logger
	cache map[string]*loadedImage
}

func newImageLoader(dir string, cfg *config.ImagesConfig, log *zap.Logger) *imageLoader {
	return &imageLoader{
		dir:   dir,
		cfg:   cfg,
		log:   log,
		cache: make(map[string]*loadedImage),
	}
}

// load fetches and processes one image by its uploads-relative path. Missing
// or undecodable files return an error, the caller decides between placeholder
// and omission.
func (l *imageLoader) load(file string) (*loadedImage, error) {
	if img, ok := l.cache[file]; ok {
		if img == nil {
			return nil, fmt.Errorf("image %q failed earlier", file)
		}
		return img, nil
	}

	img, err := l.process(file)
	l.cache[file] = img // nil on failure, do not retry per occurrence
	return img, err
}

func (l *imageLoader) process(file string) (*loadedImage, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(file))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isSVG(data, path) {
		img, err := images.RasterizeSVGToImage(data, l.cfg.MaxWidthPx, 0)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize SVG %q: %w", file, err)
		}
		return l.encode(file, img)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("unable to sniff image type of %q: %w", file, err)
	}

	switch kind {
	case matchers.TypeWebp:
		// the PDF writer has no webp support, transcode
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unable to decode webp %q: %w", file, err)
		}
		return l.encode(file, img)
	case matchers.TypeJpeg, matchers.TypePng, matchers.TypeGif:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unable to decode image %q: %w", file, err)
		}
		if l.cfg.MaxWidthPx > 0 && cfg.Width > l.cfg.MaxWidthPx {
			img, err := imaging.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("unable to decode image %q: %w", file, err)
			}
			return l.encode(file, imaging.Resize(img, l.cfg.MaxWidthPx, 0, imaging.Lanczos))
		}
		typ := strings.ToUpper(kind.Extension) // "jpg" -> "JPG" is not what fpdf wants
		if kind == matchers.TypeJpeg {
			typ = "JPEG"
			// make sure density is recorded, the writer sizes by it
			if fixed, _, err := images.EnsureJFIFAPP0(data, images.DpiPxPerInch, renderDPI, renderDPI); err == nil {
				data = fixed
			}
		}
		return &loadedImage{name: "upload:" + file, data: data, typ: typ, w: cfg.Width, h: cfg.Height}, nil
	default:
		return nil, fmt.Errorf("unsupported image type %q for %q", kind.MIME.Value, file)
	}
}

// encode converts a decoded image to JPEG at the configured quality, the
// common sink for everything that had to be transcoded or resized.
func (l *imageLoader) encode(file string, img image.Image) (*loadedImage, error) {
	data, err := images.EncodeJPEGWithDPI(img, l.cfg.JPEGQuality, images.DpiPxPerInch, renderDPI, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("unable to encode image %q: %w", file, err)
	}
	b := img.Bounds()
	return &loadedImage{name: "upload:" + file, data: data, typ: "JPEG", w: b.Dx(), h: b.Dy()}, nil
}

// isSVG sniffs for SVG content, which the magic-number matcher cannot detect
// since SVG is just XML.
func isSVG(data []byte, path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
