// Package document turns raw WXR records into the renderable model: entries
// made of plain text blocks with their comment threads attached. All markup
// interpretation ends here - nothing downstream ever sees an HTML tag.
package document

import (
	"time"
)

// BlockKind enumerates the renderable block types body content is reduced to.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockQuote
	BlockList
	BlockImage
	BlockPreformatted
)

// Block is one renderable unit of an entry body. Which fields are meaningful
// depends on Kind; Text never contains markup.
type Block struct {
	Kind    BlockKind
	Text    string
	Level   int // heading level 1..6
	Items   []string
	Ordered bool
	// image blocks: file is the path relative to the uploads mirror, URL is
	// the original address kept for placeholders when the file is absent
	ImageFile string
	ImageURL  string
	Caption   string
	WidthPx   int // explicit width from markup, 0 - natural
}

// EntryKind is post or page.
type EntryKind int

const (
	KindPost EntryKind = iota
	KindPage
)

func (k EntryKind) String() string {
	if k == KindPage {
		return "page"
	}
	return "post"
}

// Comment is one resolved comment. Depth carries threading for indentation;
// ordering within an entry is fixed at build time (depth-first over the
// parent tree, declaration order among siblings).
type Comment struct {
	ID      int64
	Author  string
	Text    string
	Date    time.Time
	HasDate bool
	Depth   int
}

// Entry is a post or page ready for layout. Immutable once built.
type Entry struct {
	ID        int
	Kind      EntryKind
	Title     string
	Author    string
	Excerpt   string // hand-written lede from the export, often empty
	Published time.Time
	HasDate   bool
	Blocks    []Block
	Comments  []Comment // empty slice when there are none, never nil
}

// Document is the assembled conversion input: entries in their final order
// plus the site metadata the title page needs.
type Document struct {
	Title    string
	Subtitle string
	BaseURL  string
	From, To time.Time
	Entries  []Entry
}

// DateRange renders the derived publish range for the title page, empty when
// no entry carries a date.
func (d *Document) DateRange() string {
	if d.From.IsZero() {
		return ""
	}
	const layout = "January 2, 2006"
	if d.From.Equal(d.To) {
		return d.From.Format(layout)
	}
	return d.From.Format(layout) + " - " + d.To.Format(layout)
}
