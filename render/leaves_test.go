package render

import (
	"testing"

	"wxr2pdf/config"
	"wxr2pdf/document"
)

func testEntries() []document.Entry {
	return []document.Entry{
		{Title: "About", Kind: document.KindPage},
		{Title: "Contact", Kind: document.KindPage},
		{Title: "First post", Kind: document.KindPost},
	}
}

func leafTitles(leaves []leaf) []string {
	titles := make([]string, len(leaves))
	for i := range leaves {
		titles[i] = leaves[i].title
	}
	return titles
}

func TestBuildLeavesSeparators(t *testing.T) {
	doc := &document.Document{Entries: testEntries()}
	cfg := &config.DocumentConfig{
		EntryOrder:     config.EntryOrderPagesFirst,
		KindSeparators: true,
	}

	got := leafTitles(buildLeaves(doc, cfg))
	want := []string{"Pages", "About", "Contact", "Posts", "First post"}
	if len(got) != len(want) {
		t.Fatalf("leaves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaves = %v, want %v", got, want)
		}
	}

	leaves := buildLeaves(doc, cfg)
	if !leaves[0].separator || leaves[0].entry != nil {
		t.Error("first leaf should be a separator without an entry")
	}
	if leaves[1].separator || leaves[1].entry == nil {
		t.Error("second leaf should carry its entry")
	}
}

func TestBuildLeavesNoSeparators(t *testing.T) {
	doc := &document.Document{Entries: testEntries()}

	// chronological ordering never gets separators even when enabled
	cfg := &config.DocumentConfig{
		EntryOrder:     config.EntryOrderChronological,
		KindSeparators: true,
	}
	if got := buildLeaves(doc, cfg); len(got) != 3 {
		t.Errorf("leaves = %v, want entries only", leafTitles(got))
	}

	cfg = &config.DocumentConfig{EntryOrder: config.EntryOrderPagesFirst}
	if got := buildLeaves(doc, cfg); len(got) != 3 {
		t.Errorf("leaves = %v, want entries only", leafTitles(got))
	}
}

func TestTocLeader(t *testing.T) {
	cases := []struct {
		name  string
		title string
		width int
		dots  bool
		want  string
	}{
		{"short with dots", "Hi", 8, true, "Hi ........"},
		{"short with spaces", "Hi", 8, false, "Hi " + "        "},
		{"exact width", "12345678", 8, true, "12345678 .."},
		{"truncated", "a very long title", 8, true, "a very … .."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tocLeader(tc.title, tc.width, tc.dots); got != tc.want {
				t.Errorf("tocLeader(%q, %d) = %q, want %q", tc.title, tc.width, got, tc.want)
			}
		})
	}

	// rows must come out at identical rune width regardless of title, the
	// fixed column is what keeps both rendering passes in step
	const width = 16
	for _, title := range []string{"x", "exactly sixteen!", "way past the configured maximum"} {
		if got := len([]rune(tocLeader(title, width, true))); got != width+3 {
			t.Errorf("tocLeader(%q) width = %d, want %d", title, got, width+3)
		}
	}
}
