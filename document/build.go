package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"wxr2pdf/config"
	"wxr2pdf/wxr"
)

// Build assembles the renderable document from a parsed channel: filters items
// down to renderable entries, normalizes their content, resolves comment
// threads and fixes the final entry order. After this point nothing is ever
// reordered or mutated.
func Build(ch *wxr.Channel, cfg *config.DocumentConfig, log *zap.Logger) (*Document, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unable to load timezone %q: %w", cfg.Timezone, err)
	}

	base := ch.BaseBlogURL
	if base == "" {
		base = ch.Link
	}
	norm := NewNormalizer(base, log)

	// media library rows first - an attachment may be declared after the post
	// that embeds it
	for i := range ch.Items {
		if ch.Items[i].IsAttachment() {
			norm.RegisterAttachment(ch.Items[i].AttachmentURL)
		}
	}

	doc := &Document{
		Title:    ch.Title,
		Subtitle: ch.Description,
		BaseURL:  base,
	}

	seen := make(map[int]bool)
	for i := range ch.Items {
		item := &ch.Items[i]

		var kind EntryKind
		switch {
		case item.IsPost():
			kind = KindPost
		case item.IsPage():
			kind = KindPage
		case item.IsAttachment():
			// already registered above, the file itself comes from the local
			// uploads mirror
			continue
		default:
			log.Debug("Skipping item of unsupported type",
				zap.Int("id", item.ID), zap.String("type", item.PostType))
			continue
		}

		if !item.IsPublished() && !cfg.IncludeUnpublished {
			log.Info("Skipping unpublished item",
				zap.Int("id", item.ID), zap.String("title", item.Title), zap.String("status", item.Status))
			continue
		}
		if item.ID != 0 {
			if seen[item.ID] {
				log.Warn("Duplicate item id, keeping first", zap.Int("id", item.ID), zap.String("title", item.Title))
				continue
			}
			seen[item.ID] = true
		}

		entry := Entry{
			ID:       item.ID,
			Kind:     kind,
			Title:    item.Title,
			Author:   resolveAuthor(ch.Authors, item.Creator),
			Excerpt:  FlattenHTML(item.Excerpt),
			Blocks:   norm.Blocks(item.Content),
			Comments: []Comment{},
		}
		if entry.Title == "" {
			entry.Title = "(untitled)"
		}
		if item.HasPubDate {
			entry.Published, entry.HasDate = item.PubDate.In(loc), true
		}
		if cfg.Comments.Include {
			entry.Comments = BuildComments(item.Comments, cfg.Comments.ApprovedOnly, loc, log)
		}
		doc.Entries = append(doc.Entries, entry)
	}

	sortEntries(doc.Entries, cfg.EntryOrder)

	for i := range doc.Entries {
		e := &doc.Entries[i]
		if !e.HasDate {
			continue
		}
		if doc.From.IsZero() || e.Published.Before(doc.From) {
			doc.From = e.Published
		}
		if doc.To.IsZero() || e.Published.After(doc.To) {
			doc.To = e.Published
		}
	}

	log.Debug("Document assembled",
		zap.Int("entries", len(doc.Entries)),
		zap.String("order", cfg.EntryOrder.String()),
		zap.String("range", doc.DateRange()))
	return doc, nil
}

// resolveAuthor maps a login onto the author table's display name. Some
// exports leave display names blank - then the given/family names are used,
// and the login itself when the table has nothing better.
func resolveAuthor(authors map[string]wxr.Author, login string) string {
	a, ok := authors[login]
	if !ok {
		return login
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if name := strings.TrimSpace(a.FirstName + " " + a.LastName); name != "" {
		return name
	}
	return login
}

func sortEntries(entries []Entry, order config.EntryOrder) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if order == config.EntryOrderPagesFirst && a.Kind != b.Kind {
			return a.Kind == KindPage
		}
		switch {
		case a.HasDate != b.HasDate:
			// dateless entries sink to the end of their group
			return a.HasDate
		case a.HasDate && !a.Published.Equal(b.Published):
			return a.Published.Before(b.Published)
		}
		return natural.Less(a.Title, b.Title)
	})
}
