package document

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	tdecss "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalizer reduces raw WordPress HTML to renderable blocks. It never fails
// on content: anything it does not understand is unwrapped to its text. The
// target has no rich-text run model, so inline styling is intentionally lossy
// and link targets are appended parenthetically.
type Normalizer struct {
	baseURL     string
	uploadsRe   *regexp.Regexp
	attachments map[string]string // media library URL -> uploads-relative path
	log         *zap.Logger
}

// genericUploadsRe catches relative and scheme-variant links to the uploads
// area when the export's base url does not match.
var genericUploadsRe = regexp.MustCompile(`^(?:https?:)?(?://[^/]+)?/?wp-content/uploads/`)

// captionRe matches the WordPress [caption] shortcode which wraps an image
// and its caption text.
var captionRe = regexp.MustCompile(`(?s)\[caption([^\]]*)\](.*?)\[/caption\]`)

var (
	captionWidthRe = regexp.MustCompile(`width="(\d+)"`)
	captionImgRe   = regexp.MustCompile(`(?s)^\s*(<img[^>]*/?>)(.*)$`)
)

func NewNormalizer(baseURL string, log *zap.Logger) *Normalizer {
	n := &Normalizer{
		baseURL:     strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		attachments: make(map[string]string),
		log:         log,
	}
	if n.baseURL != "" {
		n.uploadsRe = regexp.MustCompile(regexp.QuoteMeta(n.baseURL) + `/?wp-content/uploads/`)
	}
	return n
}

// RegisterAttachment records a media library row so images referencing the
// attachment URL resolve against the uploads mirror even when the URL does not
// match the site base (CDN hosts, moved domains).
func (n *Normalizer) RegisterAttachment(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	file := n.uploadsPath(url)
	if file == "" {
		// the mirror is laid out like wp-content/uploads, anything hosted
		// elsewhere maps by bare file name
		base := url
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
		file = path.Base(base)
	}
	n.attachments[url] = file
}

// Blocks converts one item's raw HTML content into its renderable block
// sequence.
func (n *Normalizer) Blocks(raw string) []Block {
	s := n.expandCaptions(raw)
	s = autop(s)

	nodes, err := parseFragment(s)
	if err != nil {
		// should not happen - the html package recovers from almost anything -
		// but content must never abort the run
		n.log.Warn("Unable to parse item content, degrading to plain text", zap.Error(err))
		if text := collapseSpace(raw); text != "" {
			return []Block{{Kind: BlockParagraph, Text: text}}
		}
		return nil
	}

	w := &blockWriter{n: n}
	for _, node := range nodes {
		w.walk(node)
	}
	w.flush()
	return w.blocks
}

// expandCaptions rewrites [caption] shortcodes into figure markup so the
// single HTML walk below handles both notations.
func (n *Normalizer) expandCaptions(content string) string {
	return captionRe.ReplaceAllStringFunc(content, func(match string) string {
		groups := captionRe.FindStringSubmatch(match)
		attrs, inner := groups[1], groups[2]

		img := captionImgRe.FindStringSubmatch(inner)
		if img == nil {
			// no image inside - keep the shortcode text as-is
			return inner
		}

		var sb strings.Builder
		sb.WriteString("<figure")
		if wm := captionWidthRe.FindStringSubmatch(attrs); wm != nil {
			sb.WriteString(` style="width:` + wm[1] + `px"`)
		}
		sb.WriteString(">")
		sb.WriteString(img[1])
		sb.WriteString("<figcaption>" + strings.TrimSpace(img[2]) + "</figcaption>")
		sb.WriteString("</figure>")
		return sb.String()
	})
}

// autop mimics WordPress paragraph auto-insertion: chunks separated by blank
// lines become paragraphs unless they already start with a tag.
func autop(content string) string {
	chunks := strings.Split(content, "\n\n")
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		t := strings.TrimSpace(chunk)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "<") {
			out = append(out, t)
		} else {
			out = append(out, "<p>"+t+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

func parseFragment(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(s), ctx)
}

// blockWriter accumulates blocks while walking the node tree. Inline content
// found outside any block tag is gathered into an implicit paragraph which is
// flushed at the next block boundary.
type blockWriter struct {
	n       *Normalizer
	blocks  []Block
	pending strings.Builder
}

func (w *blockWriter) flush() {
	if text := collapseSpace(w.pending.String()); text != "" {
		w.blocks = append(w.blocks, Block{Kind: BlockParagraph, Text: text})
	}
	w.pending.Reset()
}

func (w *blockWriter) walk(node *html.Node) {
	switch node.Type {
	case html.TextNode:
		w.pending.WriteString(node.Data)
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch node.DataAtom {
	case atom.P, atom.Div:
		w.flush()
		// divs are treated like paragraphs unless they hold further blocks
		if hasBlockChildren(node) {
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				w.walk(c)
			}
			w.flush()
			return
		}
		if text := collapseSpace(w.inlineText(node)); text != "" {
			w.blocks = append(w.blocks, Block{Kind: BlockParagraph, Text: text})
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.flush()
		level := int(node.Data[1] - '0')
		if text := collapseSpace(w.inlineText(node)); text != "" {
			w.blocks = append(w.blocks, Block{Kind: BlockHeading, Level: level, Text: text})
		}
	case atom.Blockquote:
		w.flush()
		if text := w.quoteText(node); text != "" {
			w.blocks = append(w.blocks, Block{Kind: BlockQuote, Text: text})
		}
	case atom.Ul, atom.Ol:
		w.flush()
		items := w.listItems(node)
		if len(items) > 0 {
			w.blocks = append(w.blocks, Block{Kind: BlockList, Items: items, Ordered: node.DataAtom == atom.Ol})
		}
	case atom.Pre:
		w.flush()
		if text := strings.Trim(rawText(node), "\n"); text != "" {
			w.blocks = append(w.blocks, Block{Kind: BlockPreformatted, Text: text})
		}
	case atom.Img:
		w.flush()
		w.blocks = append(w.blocks, w.imageBlock(node, "", 0))
	case atom.Figure:
		w.flush()
		w.figureBlock(node)
	case atom.Br:
		w.pending.WriteString("\n")
	case atom.Script, atom.Style:
		// never render these
	default:
		// unknown or inline tag at block level - unwrap to content (fail-soft)
		if node.DataAtom == atom.A {
			w.pending.WriteString(w.linkText(node))
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
	}
}

// inlineText flattens an element's content to plain text. Images discovered
// inside get queued as separate blocks right after the current one.
func (w *blockWriter) inlineText(node *html.Node) string {
	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		w.flattenNode(&sb, c)
	}
	return sb.String()
}

// flattenNode appends nd's flattened text, the single-node primitive behind
// inlineText and quoteText.
func (w *blockWriter) flattenNode(sb *strings.Builder, nd *html.Node) {
	switch nd.Type {
	case html.TextNode:
		sb.WriteString(nd.Data)
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}
	switch nd.DataAtom {
	case atom.Br:
		sb.WriteString("\n")
	case atom.A:
		sb.WriteString(w.linkText(nd))
	case atom.Img:
		// image buried in running text becomes its own block
		w.blocks = append(w.blocks, w.imageBlock(nd, "", 0))
	case atom.Script, atom.Style:
	default:
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			w.flattenNode(sb, c)
		}
	}
}

// linkText renders a link as "text (target)"; anchors and self-describing
// targets keep just the text.
func (w *blockWriter) linkText(node *html.Node) string {
	text := collapseSpace(w.inlineText(node))
	href := strings.TrimSpace(attrValue(node, "href"))
	if href == "" || strings.HasPrefix(href, "#") || href == text {
		return text
	}
	if text == "" {
		return href
	}
	return text + " (" + href + ")"
}

func (w *blockWriter) quoteText(node *html.Node) string {
	var parts []string
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		var sb strings.Builder
		if c.Type == html.ElementNode && c.DataAtom == atom.P {
			sb.WriteString(w.inlineText(c))
		} else {
			w.flattenNode(&sb, c)
		}
		if text := collapseSpace(sb.String()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func (w *blockWriter) listItems(node *html.Node) []string {
	var items []string
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		if text := collapseSpace(w.inlineText(c)); text != "" {
			items = append(items, text)
		}
	}
	return items
}

func (w *blockWriter) figureBlock(node *html.Node) {
	caption := ""
	width := styleWidthPx(attrValue(node, "style"))

	var img *html.Node
	var visit func(*html.Node)
	visit = func(nd *html.Node) {
		if nd.Type == html.ElementNode {
			switch nd.DataAtom {
			case atom.Img:
				if img == nil {
					img = nd
				}
				return
			case atom.Figcaption:
				caption = collapseSpace(w.inlineText(nd))
				return
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(node)

	if img == nil {
		// figure without image - keep whatever text it holds
		if text := collapseSpace(w.inlineText(node)); text != "" {
			w.blocks = append(w.blocks, Block{Kind: BlockParagraph, Text: text})
		}
		return
	}
	w.blocks = append(w.blocks, w.imageBlock(img, caption, width))
}

func (w *blockWriter) imageBlock(node *html.Node, caption string, width int) Block {
	src := strings.TrimSpace(attrValue(node, "src"))

	b := Block{
		Kind:     BlockImage,
		ImageURL: src,
		Caption:  caption,
		WidthPx:  width,
	}
	if b.WidthPx == 0 {
		if v, err := strconv.Atoi(strings.TrimSpace(attrValue(node, "width"))); err == nil && v > 0 {
			b.WidthPx = v
		} else {
			b.WidthPx = styleWidthPx(attrValue(node, "style"))
		}
	}

	if file := w.n.uploadsFile(src); file != "" {
		b.ImageFile = file
	} else if src != "" {
		w.n.log.Debug("Image is not under the uploads mirror, will render placeholder", zap.String("src", src))
	}
	return b
}

// uploadsFile maps an image URL onto its path relative to the local uploads
// mirror, empty when the URL does not point at the uploads area. Registered
// attachment URLs win over pattern matching.
func (n *Normalizer) uploadsFile(src string) string {
	if src == "" {
		return ""
	}
	if file, ok := n.attachments[src]; ok {
		return file
	}
	return n.uploadsPath(src)
}

// uploadsPath extracts the portion of a URL after the uploads area, empty when
// the URL does not point there.
func (n *Normalizer) uploadsPath(src string) string {
	if n.uploadsRe != nil {
		if loc := n.uploadsRe.FindStringIndex(src); loc != nil && loc[0] == 0 {
			return src[loc[1]:]
		}
	}
	if loc := genericUploadsRe.FindStringIndex(src); loc != nil {
		return src[loc[1]:]
	}
	return ""
}

// styleWidthPx pulls an explicit pixel width out of an inline style
// attribute.
func styleWidthPx(style string) int {
	if style == "" {
		return 0
	}
	p := tdecss.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := p.Next()
		if gt == tdecss.ErrorGrammar {
			return 0
		}
		if gt != tdecss.DeclarationGrammar || !strings.EqualFold(string(data), "width") {
			continue
		}
		for _, val := range p.Values() {
			v := strings.TrimSpace(string(val.Data))
			if strings.HasSuffix(v, "px") {
				if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && f > 0 {
					return int(f)
				}
			}
		}
	}
}

// FlattenHTML strips markup from a fragment keeping only its text. Used for
// comment bodies which may carry arbitrary markup.
func FlattenHTML(s string) string {
	nodes, err := parseFragment(s)
	if err != nil {
		return collapseSpace(s)
	}
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(nd *html.Node) {
		switch nd.Type {
		case html.TextNode:
			sb.WriteString(nd.Data)
		case html.ElementNode:
			if nd.DataAtom == atom.Br || nd.DataAtom == atom.P {
				sb.WriteString("\n")
			}
			if nd.DataAtom == atom.Script || nd.DataAtom == atom.Style {
				return
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, nd := range nodes {
		visit(nd)
	}
	return collapseSpace(sb.String())
}

func rawText(node *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(nd *html.Node) {
		if nd.Type == html.TextNode {
			sb.WriteString(nd.Data)
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(node)
	return sb.String()
}

func attrValue(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasBlockChildren(node *html.Node) bool {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.Blockquote, atom.Ul, atom.Ol, atom.Pre, atom.Figure:
			return true
		}
	}
	return false
}

// collapseSpace squeezes runs of whitespace into single spaces while keeping
// intentional line breaks (from <br> and quote paragraphs).
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	// drop leading/trailing empty lines, collapse inner runs of empties
	res := strings.Trim(strings.Join(out, "\n"), "\n \t")
	for strings.Contains(res, "\n\n") {
		res = strings.ReplaceAll(res, "\n\n", "\n")
	}
	return res
}
