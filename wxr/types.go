// Package wxr parses WordPress eXtended RSS (WXR) export files into raw,
// source-ordered records. Nothing here interprets HTML content - that is the
// job of the document package.
package wxr

import "time"

// Channel is the parsed export: site metadata, the author table and all items
// in source order.
type Channel struct {
	Title       string
	Description string
	Link        string
	BaseBlogURL string
	Authors     map[string]Author // keyed by login, first-seen-wins
	Items       []RawItem
}

// Author is one row of the export's author table.
type Author struct {
	Login       string
	DisplayName string
	FirstName   string
	LastName    string
}

// RawItem is one <item> exactly as exported. Immutable once parsed.
type RawItem struct {
	ID            int
	Title         string
	Creator       string // author login, resolved to display name later
	PubDate       time.Time
	HasPubDate    bool
	PostType      string
	Status        string
	Content       string // raw HTML, CDATA already unwrapped by the reader
	Excerpt       string
	AttachmentURL string
	Comments      []RawComment
}

// RawComment is one <wp:comment> of an item, in declaration order.
type RawComment struct {
	ID       int64
	Author   string
	Content  string
	Date     time.Time
	HasDate  bool
	ParentID int64
	Approved bool
	Type     string // empty for regular comments, "pingback", "trackback" etc.
}

// IsPost and friends classify items the way the builder cares about.
func (i *RawItem) IsPost() bool       { return i.PostType == "post" }
func (i *RawItem) IsPage() bool       { return i.PostType == "page" }
func (i *RawItem) IsAttachment() bool { return i.PostType == "attachment" }
func (i *RawItem) IsPublished() bool  { return i.Status == "publish" }
