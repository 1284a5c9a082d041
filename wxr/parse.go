package wxr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"wxr2pdf/config"
)

// ErrMalformedInput marks structural failures - the file is not a WXR export
// at all. Per-item oddities never produce it, they degrade and get logged.
var ErrMalformedInput = errors.New("malformed WXR input")

// WXR piggybacks on RSS and scatters its fields over several XML namespaces
// whose URIs change with the export format version. We resolve whatever
// prefixes the document declares against the configured URI lists once, then
// dispatch elements by role instead of by hard-coded prefix.

type nsRole int

const (
	roleNone nsRole = iota
	roleWordPress
	roleDublinCore
	roleContent
	roleExcerpt
)

type nsResolver struct {
	prefixes map[string]nsRole
}

func newNSResolver(root *etree.Element, ns config.NamespacesConfig, log *zap.Logger) *nsResolver {
	uris := make(map[string]nsRole)
	for _, u := range ns.WordPress {
		uris[u] = roleWordPress
	}
	for _, u := range ns.DublinCore {
		uris[u] = roleDublinCore
	}
	for _, u := range ns.Content {
		uris[u] = roleContent
	}
	for _, u := range ns.Excerpt {
		uris[u] = roleExcerpt
	}

	res := &nsResolver{prefixes: make(map[string]nsRole)}
	for _, attr := range root.Attr {
		if attr.Space != "xmlns" {
			continue
		}
		if role, ok := uris[attr.Value]; ok {
			res.prefixes[attr.Key] = role
		} else {
			log.Debug("Unrecognized namespace in export, its elements will be dropped",
				zap.String("prefix", attr.Key), zap.String("uri", attr.Value))
		}
	}
	return res
}

func (r *nsResolver) role(el *etree.Element) nsRole {
	if el.Space == "" {
		return roleNone
	}
	return r.prefixes[el.Space]
}

// ParseChannel walks the etree DOM and constructs raw records preserving
// source order. It fails only on structural problems; unknown fields are
// dropped so exports from future WordPress versions degrade gracefully.
func ParseChannel(doc *etree.Document, ns config.NamespacesConfig, log *zap.Logger) (*Channel, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document: %w", ErrMalformedInput)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element: %w", ErrMalformedInput)
	}
	if root.Tag != "rss" {
		return nil, fmt.Errorf("unexpected root element %q: %w", root.Tag, ErrMalformedInput)
	}
	channel := root.SelectElement("channel")
	if channel == nil {
		return nil, fmt.Errorf("no channel element under rss: %w", ErrMalformedInput)
	}

	res := newNSResolver(root, ns, log)

	ch := &Channel{Authors: make(map[string]Author)}
	for _, child := range channel.ChildElements() {
		switch res.role(child) {
		case roleNone:
			switch child.Tag {
			case "title":
				ch.Title = strings.TrimSpace(child.Text())
			case "description":
				ch.Description = strings.TrimSpace(child.Text())
			case "link":
				ch.Link = strings.TrimSpace(child.Text())
			case "item":
				ch.Items = append(ch.Items, parseItem(child, res, log))
			case "pubDate", "language", "generator":
				// channel boilerplate we do not need
			default:
				log.Debug("Unexpected tag in channel, ignoring", zap.String("tag", child.Tag))
			}
		case roleWordPress:
			switch child.Tag {
			case "author":
				a := parseAuthor(child, res, log)
				if a.Login == "" {
					log.Warn("Author record without login, skipping")
					continue
				}
				if _, exists := ch.Authors[a.Login]; exists {
					// duplicate logins can show up in merged exports, first one wins
					log.Warn("Duplicate author login, keeping first", zap.String("login", a.Login))
					continue
				}
				ch.Authors[a.Login] = a
			case "base_blog_url":
				ch.BaseBlogURL = strings.TrimSpace(child.Text())
			case "wxr_version":
				log.Debug("Export format version", zap.String("wxr_version", strings.TrimSpace(child.Text())))
			case "base_site_url", "category", "tag", "term":
				// taxonomy and multisite noise
			default:
				log.Debug("Unexpected wxr tag in channel, ignoring", zap.String("tag", child.Tag))
			}
		default:
			log.Debug("Tag from unrecognized namespace in channel, ignoring",
				zap.String("space", child.Space), zap.String("tag", child.Tag))
		}
	}

	if len(ch.Items) == 0 {
		log.Warn("Export contains no items")
	}
	return ch, nil
}

func parseAuthor(el *etree.Element, res *nsResolver, log *zap.Logger) Author {
	a := Author{}
	for _, child := range el.ChildElements() {
		if res.role(child) != roleWordPress {
			log.Debug("Unexpected tag in author, ignoring", zap.String("tag", child.Tag))
			continue
		}
		switch child.Tag {
		case "author_login":
			a.Login = strings.TrimSpace(child.Text())
		case "author_email":
			// never rendered, keep addresses out of the model
		case "author_display_name":
			a.DisplayName = strings.TrimSpace(child.Text())
		case "author_first_name":
			a.FirstName = strings.TrimSpace(child.Text())
		case "author_last_name":
			a.LastName = strings.TrimSpace(child.Text())
		case "author_id":
			// not used, logins are the foreign key everywhere in WXR
		default:
			log.Debug("Unexpected wxr tag in author, ignoring", zap.String("tag", child.Tag))
		}
	}
	return a
}

func parseItem(el *etree.Element, res *nsResolver, log *zap.Logger) RawItem {
	item := RawItem{}
	for _, child := range el.ChildElements() {
		switch res.role(child) {
		case roleNone:
			switch child.Tag {
			case "title":
				item.Title = strings.TrimSpace(child.Text())
			case "pubDate":
				if t, ok := parsePubDate(child.Text(), log); ok {
					item.PubDate, item.HasPubDate = t, true
				}
			case "link", "guid", "description", "category", "comments":
				// not rendered
			default:
				log.Debug("Unexpected tag in item, ignoring", zap.String("tag", child.Tag))
			}
		case roleDublinCore:
			if child.Tag == "creator" {
				item.Creator = strings.TrimSpace(child.Text())
			}
		case roleContent:
			if child.Tag == "encoded" {
				item.Content = child.Text()
			}
		case roleExcerpt:
			if child.Tag == "encoded" {
				item.Excerpt = strings.TrimSpace(child.Text())
			}
		case roleWordPress:
			switch child.Tag {
			case "post_id":
				item.ID = parseInt(child.Text())
			case "post_type":
				item.PostType = strings.TrimSpace(child.Text())
			case "status":
				item.Status = strings.TrimSpace(child.Text())
			case "attachment_url":
				item.AttachmentURL = strings.TrimSpace(child.Text())
			case "post_date_gmt":
				// preferred over pubDate only when the latter is absent
				if !item.HasPubDate {
					if t, ok := parseSQLDate(child.Text(), time.UTC); ok {
						item.PubDate, item.HasPubDate = t, true
					}
				}
			case "comment":
				item.Comments = append(item.Comments, parseComment(child, res, log))
			case "post_date", "post_name", "post_parent", "menu_order",
				"comment_status", "ping_status", "is_sticky", "postmeta", "post_password":
				// carried by every export, irrelevant for rendering
			default:
				log.Debug("Unexpected wxr tag in item, ignoring", zap.String("tag", child.Tag))
			}
		default:
			log.Debug("Tag from unrecognized namespace in item, ignoring",
				zap.String("space", child.Space), zap.String("tag", child.Tag))
		}
	}
	return item
}

func parseComment(el *etree.Element, res *nsResolver, log *zap.Logger) RawComment {
	c := RawComment{}
	var localDate time.Time
	var hasLocalDate bool
	for _, child := range el.ChildElements() {
		if res.role(child) != roleWordPress {
			log.Debug("Unexpected tag in comment, ignoring", zap.String("tag", child.Tag))
			continue
		}
		switch child.Tag {
		case "comment_id":
			c.ID = parseInt64(child.Text())
		case "comment_author":
			c.Author = strings.TrimSpace(child.Text())
		case "comment_author_email":
			// never rendered, keep addresses out of the model
		case "comment_content":
			c.Content = child.Text()
		case "comment_date_gmt":
			if t, ok := parseSQLDate(child.Text(), time.UTC); ok {
				c.Date, c.HasDate = t, true
			}
		case "comment_date":
			if t, ok := parseSQLDate(child.Text(), time.UTC); ok {
				localDate, hasLocalDate = t, true
			}
		case "comment_parent":
			c.ParentID = parseInt64(child.Text())
		case "comment_approved":
			c.Approved = strings.TrimSpace(child.Text()) == "1"
		case "comment_type":
			c.Type = strings.TrimSpace(child.Text())
		case "comment_author_url", "comment_author_IP", "comment_user_id", "commentmeta":
			// present in every export, not rendered
		default:
			log.Debug("Unexpected wxr tag in comment, ignoring", zap.String("tag", child.Tag))
		}
	}
	if !c.HasDate && hasLocalDate {
		// older exports only carry the site-local stamp
		c.Date, c.HasDate = localDate, true
	}
	return c
}

func parsePubDate(in string, log *zap.Logger) (time.Time, bool) {
	value := strings.TrimSpace(in)
	if value == "" {
		return time.Time{}, false
	}
	for _, format := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	log.Debug("Failed to parse pubDate value", zap.String("value", value))
	return time.Time{}, false
}

// parseSQLDate handles the "2006-01-02 15:04:05" stamps WordPress writes for
// post and comment dates. The zero stamp means "not set" in WordPress land.
func parseSQLDate(in string, loc *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(in)
	if value == "" || strings.HasPrefix(value, "0000-00-00") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseInt(in string) int {
	v, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return 0
	}
	return v
}

func parseInt64(in string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(in), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
