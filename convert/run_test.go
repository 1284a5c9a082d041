package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"wxr2pdf/config"
	"wxr2pdf/state"
)

func testProcessContext(t *testing.T) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load configuration: %v", err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

func TestProcessMissingSource(t *testing.T) {
	log := zaptest.NewLogger(t)

	err := process(context.Background(), "/nonexistent/path/export.xml", t.TempDir(), "", log)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestProcessUnrecognizedFile(t *testing.T) {
	log := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "notes.xml")
	if err := os.WriteFile(path, []byte(`<?xml version="1.0"?><html></html>`), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(context.Background(), path, t.TempDir(), "", log)
	if err == nil {
		t.Fatal("expected error for file that is not a WXR export")
	}
}

func TestProcessMalformedExport(t *testing.T) {
	ctx := testProcessContext(t)
	log := state.EnvFromContext(ctx).Log

	// looks like an export (rss head, xml extension) but is cut off mid CDATA,
	// an explicitly named file failing to parse must fail the whole run
	truncated := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:wp="http://wordpress.org/export/1.2/">
<channel><title>Test</title>
<item><title>Post</title><wp:post_id>1</wp:post_id>
<content:encoded><![CDATA[cut off mid sent`

	path := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(path, []byte(truncated), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	dst := t.TempDir()
	if err := process(ctx, path, dst, "", log); err == nil {
		t.Fatal("expected error for malformed export given as source")
	}

	// and no partial output left behind
	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("destination not empty after failed conversion: %v", entries)
	}
}

func TestProcessCancelled(t *testing.T) {
	log := zaptest.NewLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := process(ctx, t.TempDir(), t.TempDir(), "", log); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestApplyTitleTemplates(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Document.TitlePage.TitleTemplate = "{{.SiteTitle}} archive"
	env.Cfg.Document.TitlePage.SubtitleTemplate = "{{.Posts}} posts"

	c := testContent()
	applyTitleTemplates(c, env)

	if c.Document.Title != "Example Blog archive" {
		t.Errorf("title = %q, want %q", c.Document.Title, "Example Blog archive")
	}
	if c.Document.Subtitle != "2 posts" {
		t.Errorf("subtitle = %q, want %q", c.Document.Subtitle, "2 posts")
	}
}

func TestApplyTitleTemplatesEmptyResultKeepsTitle(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Document.TitlePage.TitleTemplate = "{{if false}}never{{end}}"

	c := testContent()
	applyTitleTemplates(c, env)

	if c.Document.Title != "Example Blog" {
		t.Errorf("title = %q, want original to be kept", c.Document.Title)
	}
}

func TestApplyTitleTemplatesBadTemplate(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Document.TitlePage.TitleTemplate = "{{.NoSuchField}}"

	c := testContent()
	applyTitleTemplates(c, env)

	// failed expansion leaves channel metadata in place
	if c.Document.Title != "Example Blog" {
		t.Errorf("title = %q, want original to be kept", c.Document.Title)
	}
}
