// Package content ties parsing and document assembly together: it owns the
// XML reading policy and produces the conversion input for the renderer.
package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"wxr2pdf/document"
	"wxr2pdf/misc"
	"wxr2pdf/state"
	"wxr2pdf/wxr"
)

// Content is everything the renderer needs for one conversion: the assembled
// document plus the raw channel for templates and diagnostics.
type Content struct {
	SrcName string
	Doc     *etree.Document
	RefID   string

	Channel  *wxr.Channel
	Document *document.Document
}

// Prepare reads, parses and assembles WXR content for conversion.
func Prepare(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	doc := etree.NewDocument()

	// Real-world exports are not always well formed and occasionally lie about
	// their encoding, read as permissively as possible
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}
	if env.CodePage != nil {
		// --force-cp overrides whatever the XML declaration claims
		r = env.CodePage.NewDecoder().Reader(r)
		doc.ReadSettings.CharsetReader = nil
	}

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read WXR: %w", err)
	}

	ch, err := wxr.ParseChannel(doc, env.Cfg.Document.Namespaces, log)
	if err != nil {
		return nil, fmt.Errorf("unable to parse WXR: %w", err)
	}

	d, err := document.Build(ch, &env.Cfg.Document, log)
	if err != nil {
		return nil, fmt.Errorf("unable to assemble document: %w", err)
	}

	// WXR has no stable document id, mint one per conversion so report
	// artifacts from a single run group together
	refID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate conversion id: %w", err)
	}

	// Save parsed document to file for debugging
	if env.Rpt != nil {
		tmpDir, err := os.MkdirTemp("", misc.GetAppName()+"-")
		if err != nil {
			return nil, fmt.Errorf("unable to create temporary directory: %w", err)
		}
		env.Rpt.Store(fmt.Sprintf("%s-%s", misc.GetAppName(), refID), tmpDir)
		if err := doc.WriteToFile(filepath.Join(tmpDir, filepath.Base(srcName))); err != nil {
			return nil, fmt.Errorf("unable to write input doc for debugging: %w", err)
		}
	}

	log.Debug("Content prepared",
		zap.String("source", srcName),
		zap.Stringer("id", refID),
		zap.Int("items", len(ch.Items)),
		zap.Int("entries", len(d.Entries)))

	return &Content{
		SrcName:  srcName,
		Doc:      doc,
		RefID:    refID.String(),
		Channel:  ch,
		Document: d,
	}, nil
}
