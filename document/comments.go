package document

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"wxr2pdf/wxr"
)

// commentNode is one arena slot of the thread being resolved. Children are
// indexes into the same arena, appended in declaration order so the emitted
// sequence is stable against the export.
type commentNode struct {
	raw      wxr.RawComment
	children []int
}

// BuildComments flattens an item's raw comments into rendering order:
// depth-first over the parent tree with siblings kept in declaration order.
// Exports are not trusted to be consistent - orphaned comments (parent filtered
// out or simply absent) are promoted to top level, and parent cycles are broken
// by promoting the first cycle member seen.
func BuildComments(raw []wxr.RawComment, approvedOnly bool, loc *time.Location, log *zap.Logger) []Comment {
	arena := make([]commentNode, 0, len(raw))
	for _, c := range raw {
		if approvedOnly && !c.Approved {
			log.Debug("Skipping unapproved comment", zap.Int64("id", c.ID))
			continue
		}
		if t := strings.ToLower(c.Type); t == "pingback" || t == "trackback" {
			// machine-generated backlinks, not reader comments
			log.Debug("Skipping comment", zap.Int64("id", c.ID), zap.String("type", c.Type))
			continue
		}
		arena = append(arena, commentNode{raw: c})
	}

	index := make(map[int64]int, len(arena))
	for i := range arena {
		if _, dup := index[arena[i].raw.ID]; dup {
			// broken export, both comments still render but children attach to
			// the first record
			log.Warn("Duplicate comment id", zap.Int64("id", arena[i].raw.ID))
			continue
		}
		index[arena[i].raw.ID] = i
	}

	var roots []int
	for i := range arena {
		parent := arena[i].raw.ParentID
		if parent == 0 {
			roots = append(roots, i)
			continue
		}
		j, ok := index[parent]
		if !ok || j == i {
			log.Debug("Comment parent is missing, promoting to top level",
				zap.Int64("id", arena[i].raw.ID), zap.Int64("parent", parent))
			roots = append(roots, i)
			continue
		}
		arena[j].children = append(arena[j].children, i)
	}

	out := make([]Comment, 0, len(arena))
	visited := make([]bool, len(arena))

	var emit func(i, depth int)
	emit = func(i, depth int) {
		if visited[i] {
			return
		}
		visited[i] = true
		out = append(out, resolveComment(arena[i].raw, depth, loc))
		for _, c := range arena[i].children {
			emit(c, depth+1)
		}
	}
	for _, r := range roots {
		emit(r, 0)
	}

	// anything still unvisited sits on a parent cycle - promote members in
	// declaration order so nothing silently disappears
	for i := range arena {
		if !visited[i] {
			log.Warn("Comment parent cycle detected, flattening",
				zap.Int64("id", arena[i].raw.ID), zap.Int64("parent", arena[i].raw.ParentID))
			emit(i, 0)
		}
	}
	return out
}

func resolveComment(raw wxr.RawComment, depth int, loc *time.Location) Comment {
	c := Comment{
		ID:     raw.ID,
		Author: raw.Author,
		Text:   FlattenHTML(raw.Content),
		Depth:  depth,
	}
	if c.Author == "" {
		c.Author = "Anonymous"
	}
	if raw.HasDate {
		c.Date, c.HasDate = raw.Date.In(loc), true
	}
	return c
}
