package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"wxr2pdf/config"
	"wxr2pdf/document"
	"wxr2pdf/misc"
)

const (
	bodySize    = 11.0
	bodyLine    = 5.5
	monoSize    = 9.0
	monoLine    = 4.5
	captionSize = 9.0
	pxToMM      = 25.4 / renderDPI
)

// renderer drives one complete emission of the document into a PDF instance.
// Page numbers are only known after everything is laid out, so the document is
// rendered twice: the first pass runs with pages == nil and records where each
// leaf lands, the second runs with that index and prints the real numbers. The
// two passes MUST issue the identical drawing sequence - anything
// data-dependent here has to be derived from inputs both passes share.
type renderer struct {
	pdf    *fpdf.Fpdf
	cfg    *config.DocumentConfig
	doc    *document.Document
	leaves []leaf
	images *imageLoader
	log    *zap.Logger

	pages        []int // final page per leaf, nil on the layout pass
	links        []int
	registered   map[string]bool
	contentStart int
	marginLeft   float64
	contentW     float64
}

func newRenderer(doc *document.Document, cfg *config.DocumentConfig, leaves []leaf, images *imageLoader, pages []int, log *zap.Logger) *renderer {
	// the font directory goes to fpdf itself - AddUTF8Font resolves bare file
	// names against it, which keeps absolute directories working
	pdf := fpdf.New("P", "mm", cfg.Page.Size, cfg.Fonts.Directory)

	m := cfg.Page.Margin
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(true, m)

	pageW, _ := pdf.GetPageSize()
	return &renderer{
		pdf:        pdf,
		cfg:        cfg,
		doc:        doc,
		leaves:     leaves,
		images:     images,
		log:        log,
		pages:      pages,
		registered: make(map[string]bool),
		marginLeft: m,
		contentW:   pageW - 2*m,
	}
}

// run emits the whole document and returns the page number each leaf started
// on. The caller owns output - nothing is written to disk here.
func (r *renderer) run() ([]int, error) {
	if err := registerFonts(r.pdf, &r.cfg.Fonts); err != nil {
		return nil, err
	}

	r.pdf.SetTitle(r.doc.Title, true)
	r.pdf.SetCreator(misc.GetAppName()+" "+misc.GetVersion(), true)

	r.links = make([]int, len(r.leaves))
	for i := range r.leaves {
		r.links[i] = r.pdf.AddLink()
	}

	fam := r.cfg.Fonts.Family
	r.pdf.SetFooterFunc(func() {
		if !r.cfg.Page.PageOfN || r.pdf.PageNo() == 1 {
			return
		}
		r.pdf.SetY(-r.marginLeft + 2)
		r.pdf.SetFont(fam, "", 9)
		r.pdf.SetTextColor(96, 96, 96)
		r.pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", r.pdf.PageNo()), "", 0, "C", false, 0, "")
		r.pdf.SetTextColor(0, 0, 0)
	})
	r.pdf.SetHeaderFunc(func() {
		if !r.cfg.Page.SiteTitle || r.contentStart == 0 || r.pdf.PageNo() < r.contentStart {
			return
		}
		r.pdf.SetFont(fam, "I", 9)
		r.pdf.SetTextColor(96, 96, 96)
		r.pdf.CellFormat(0, 5, r.doc.Title, "", 1, "R", false, 0, "")
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.Ln(3)
	})

	r.titlePage()
	r.toc()

	// every page added from here on carries the site header
	r.contentStart = r.pdf.PageNo() + 1

	index := make([]int, len(r.leaves))
	for i := range r.leaves {
		r.pdf.AddPage()
		index[i] = r.pdf.PageNo()
		r.pdf.SetLink(r.links[i], 0, -1)

		if r.leaves[i].separator {
			r.separator(&r.leaves[i])
		} else {
			r.entry(r.leaves[i].entry)
		}
		if r.pdf.Err() {
			return nil, fmt.Errorf("unable to render %q: %w", r.leaves[i].title, r.pdf.Error())
		}
	}
	return index, nil
}

func (r *renderer) titlePage() {
	fam := r.cfg.Fonts.Family
	r.pdf.AddPage()

	_, pageH := r.pdf.GetPageSize()
	r.pdf.SetY(pageH / 3)

	r.pdf.SetFont(fam, "B", 28)
	r.pdf.MultiCell(0, 12, r.doc.Title, "", "C", false)
	if r.doc.Subtitle != "" {
		r.pdf.Ln(4)
		r.pdf.SetFont(fam, "", 14)
		r.pdf.MultiCell(0, 8, r.doc.Subtitle, "", "C", false)
	}
	if rng := r.doc.DateRange(); rng != "" {
		r.pdf.Ln(10)
		r.pdf.SetFont(fam, "", 12)
		r.pdf.MultiCell(0, 6, rng, "", "C", false)
	}
	if r.doc.BaseURL != "" {
		r.pdf.Ln(6)
		r.pdf.SetFont(fam, "I", 10)
		r.pdf.SetTextColor(96, 96, 96)
		r.pdf.MultiCell(0, 5, r.doc.BaseURL, "", "C", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
}

// toc emits the contents listing. Rows use the mono face with a fixed-width
// number column so the layout pass, which does not know real page numbers yet,
// produces exactly the same pagination as the final one.
func (r *renderer) toc() {
	cfg := &r.cfg.TOCPage
	r.pdf.AddPage()

	r.pdf.SetFont(r.cfg.Fonts.Family, "B", 18)
	r.pdf.CellFormat(0, 12, cfg.Title, "", 1, "L", false, 0, "")
	r.pdf.Ln(4)

	r.pdf.SetFont(monoFamily(&r.cfg.Fonts), "", 10)
	for i := range r.leaves {
		page := 0
		if r.pages != nil {
			page = r.pages[i]
		}
		row := fmt.Sprintf("%s %4d", tocLeader(r.leaves[i].title, cfg.MaxTitleLen, cfg.DotLeaders), page)
		r.pdf.CellFormat(0, 6, row, "", 1, "L", false, r.links[i], "")
	}
}

// tocLeader truncates a title to the configured width and pads it out with
// dots (or spaces) to a fixed column.
func tocLeader(title string, width int, dots bool) string {
	if n := utf8.RuneCountInString(title); n > width {
		title = string([]rune(title)[:width-1]) + "…"
	}
	pad := width + 2 - utf8.RuneCountInString(title)
	fill := " "
	if dots {
		fill = "."
	}
	return title + " " + strings.Repeat(fill, pad)
}

func (r *renderer) separator(lf *leaf) {
	fam := r.cfg.Fonts.Family
	_, pageH := r.pdf.GetPageSize()
	r.pdf.SetY(pageH / 2.5)
	r.pdf.SetFont(fam, "B", 24)
	r.pdf.MultiCell(0, 10, lf.title, "", "C", false)
}

func (r *renderer) entry(e *document.Entry) {
	fam := r.cfg.Fonts.Family

	r.pdf.SetFont(fam, "B", 18)
	r.pdf.MultiCell(0, 9, e.Title, "", "L", false)

	byline := e.Author
	if e.HasDate {
		stamp := e.Published.Format("January 2, 2006")
		if byline != "" {
			byline += " - " + stamp
		} else {
			byline = stamp
		}
	}
	if byline != "" {
		r.pdf.SetFont(fam, "I", 10)
		r.pdf.SetTextColor(96, 96, 96)
		r.pdf.MultiCell(0, 5, byline, "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
	if e.Excerpt != "" {
		r.pdf.Ln(2)
		r.pdf.SetFont(fam, "I", bodySize)
		r.pdf.SetTextColor(64, 64, 64)
		r.pdf.MultiCell(0, bodyLine, e.Excerpt, "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
	r.pdf.Ln(4)

	for i := range e.Blocks {
		r.block(&e.Blocks[i])
	}

	if len(e.Comments) > 0 {
		r.pdf.Ln(4)
		r.pdf.SetFont(fam, "B", 13)
		r.pdf.CellFormat(0, 8, fmt.Sprintf("%s (%d)", r.cfg.Comments.Title, len(e.Comments)), "B", 1, "L", false, 0, "")
		r.pdf.Ln(3)
		for i := range e.Comments {
			r.comment(&e.Comments[i])
		}
	}
}

func (r *renderer) block(b *document.Block) {
	fam := r.cfg.Fonts.Family
	switch b.Kind {
	case document.BlockParagraph:
		r.pdf.SetFont(fam, "", bodySize)
		r.pdf.MultiCell(0, bodyLine, b.Text, "", "L", false)
		r.pdf.Ln(2.5)
	case document.BlockHeading:
		r.pdf.SetFont(fam, "B", headingSize(b.Level))
		r.pdf.Ln(1.5)
		r.pdf.MultiCell(0, headingSize(b.Level)*0.55, b.Text, "", "L", false)
		r.pdf.Ln(1.5)
	case document.BlockQuote:
		r.pdf.SetLeftMargin(r.marginLeft + 8)
		r.pdf.SetX(r.marginLeft + 8)
		r.pdf.SetFont(fam, "I", bodySize)
		r.pdf.SetTextColor(80, 80, 80)
		r.pdf.MultiCell(0, bodyLine, b.Text, "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.SetLeftMargin(r.marginLeft)
		r.pdf.Ln(2.5)
	case document.BlockList:
		r.pdf.SetFont(fam, "", bodySize)
		for i, item := range b.Items {
			label := "• "
			if b.Ordered {
				label = fmt.Sprintf("%d. ", i+1)
			}
			labelW := r.pdf.GetStringWidth(label) + 1
			r.pdf.CellFormat(labelW, bodyLine, label, "", 0, "L", false, 0, "")
			r.pdf.SetLeftMargin(r.marginLeft + labelW)
			r.pdf.MultiCell(0, bodyLine, item, "", "L", false)
			r.pdf.SetLeftMargin(r.marginLeft)
		}
		r.pdf.Ln(2.5)
	case document.BlockPreformatted:
		r.pdf.SetFont(monoFamily(&r.cfg.Fonts), "", monoSize)
		r.pdf.SetFillColor(245, 245, 245)
		r.pdf.MultiCell(0, monoLine, b.Text, "", "L", true)
		r.pdf.Ln(2.5)
	case document.BlockImage:
		r.image(b)
	}
}

func (r *renderer) image(b *document.Block) {
	img, err := r.loadImage(b)
	if err != nil {
		if r.cfg.Images.UsePlaceholders {
			r.imagePlaceholder(b)
		}
		return
	}

	if !r.registered[img.name] {
		r.pdf.RegisterImageOptionsReader(img.name, fpdf.ImageOptions{ImageType: img.typ}, bytes.NewReader(img.data))
		r.registered[img.name] = true
	}

	scale := r.cfg.Images.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	w := float64(img.w) * pxToMM * scale
	if b.WidthPx > 0 {
		// honor the explicit width from markup but never upscale
		if markup := float64(b.WidthPx) * pxToMM * scale; markup < w {
			w = markup
		}
	}
	if w > r.contentW {
		w = r.contentW
	}
	x := r.marginLeft + (r.contentW-w)/2

	r.pdf.ImageOptions(img.name, x, 0, w, 0, true, fpdf.ImageOptions{ImageType: img.typ}, 0, "")
	if b.Caption != "" {
		r.pdf.Ln(1)
		r.pdf.SetFont(r.cfg.Fonts.Family, "I", captionSize)
		r.pdf.SetTextColor(96, 96, 96)
		r.pdf.MultiCell(0, 4.5, b.Caption, "", "C", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
	r.pdf.Ln(3)
}

func (r *renderer) loadImage(b *document.Block) (*loadedImage, error) {
	if b.ImageFile == "" {
		// not under the uploads mirror, we never fetch remote content
		return nil, fmt.Errorf("image %q is not local", b.ImageURL)
	}
	img, err := r.images.load(b.ImageFile)
	if err != nil && r.pages == nil {
		// only the layout pass logs, the final pass repeats the same failures
		r.log.Warn("Unable to load image, skipping", zap.String("file", b.ImageFile), zap.Error(err))
	}
	return img, err
}

func (r *renderer) imagePlaceholder(b *document.Block) {
	label := b.ImageURL
	if label == "" {
		label = b.ImageFile
	}
	r.pdf.SetFont(r.cfg.Fonts.Family, "I", captionSize)
	r.pdf.SetTextColor(96, 96, 96)
	r.pdf.MultiCell(0, 6, "[ image: "+label+" ]", "1", "C", false)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(3)
}

func (r *renderer) comment(c *document.Comment) {
	fam := r.cfg.Fonts.Family
	indent := r.marginLeft + float64(c.Depth)*6

	r.pdf.SetLeftMargin(indent)
	r.pdf.SetX(indent)

	head := c.Author
	if c.HasDate {
		head += " - " + c.Date.Format("January 2, 2006 15:04")
	}
	r.pdf.SetFont(fam, "B", 10)
	r.pdf.MultiCell(0, 5, head, "", "L", false)
	r.pdf.SetFont(fam, "", 10)
	r.pdf.MultiCell(0, 5, c.Text, "", "L", false)

	r.pdf.SetLeftMargin(r.marginLeft)
	r.pdf.Ln(2)
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 14.5
	case 3:
		return 13
	case 4:
		return 12
	case 5:
		return 11.5
	default:
		return 11
	}
}
