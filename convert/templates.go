package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"wxr2pdf/config"
	"wxr2pdf/content"
	"wxr2pdf/document"
)

// Values holds the variables available for template expansion in the output
// name and title page templates.
type Values struct {
	Context     string
	SiteTitle   string
	Description string
	BaseURL     string
	DateRange   string
	SourceFile  string
	RefID       string
	Entries     int
	Posts       int
	Pages       int
}

func countEntries(c *content.Content) (posts, pages int) {
	for i := range c.Document.Entries {
		if c.Document.Entries[i].Kind == document.KindPage {
			pages++
		} else {
			posts++
		}
	}
	return posts, pages
}

func expandTemplate(c *content.Content, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	posts, pages := countEntries(c)
	values := Values{
		Context:     string(name),
		SiteTitle:   c.Channel.Title,
		Description: c.Channel.Description,
		BaseURL:     c.Document.BaseURL,
		DateRange:   c.Document.DateRange(),
		SourceFile:  strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName)),
		RefID:       c.RefID,
		Entries:     len(c.Document.Entries),
		Posts:       posts,
		Pages:       pages,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
