package render

import (
	"wxr2pdf/config"
	"wxr2pdf/document"
)

// leaf is one row of the table of contents and the unit of pagination: every
// leaf starts on a fresh page. Separators are synthetic leaves marking the
// transition between entry kinds.
type leaf struct {
	title     string
	separator bool
	entry     *document.Entry // nil for separators
}

// separatorTitle names the group a separator leaf opens.
func separatorTitle(k document.EntryKind) string {
	if k == document.KindPage {
		return "Pages"
	}
	return "Posts"
}

// buildLeaves derives the leaf sequence from the assembled document. The
// sequence is computed once and shared by both rendering passes - the TOC, the
// page index and the body all iterate the same slice.
func buildLeaves(doc *document.Document, cfg *config.DocumentConfig) []leaf {
	leaves := make([]leaf, 0, len(doc.Entries)+2)

	separators := cfg.KindSeparators && cfg.EntryOrder == config.EntryOrderPagesFirst
	for i := range doc.Entries {
		e := &doc.Entries[i]
		if separators && (i == 0 || doc.Entries[i-1].Kind != e.Kind) {
			leaves = append(leaves, leaf{title: separatorTitle(e.Kind), separator: true})
		}
		leaves = append(leaves, leaf{title: e.Title, entry: e})
	}
	return leaves
}
