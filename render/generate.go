// Package render lays the assembled document out as a paginated PDF. Layout
// is a fixed point: TOC page numbers depend on pagination which depends on the
// TOC itself, so the document is emitted twice with identical geometry.
package render

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wxr2pdf/content"
	"wxr2pdf/state"
)

// Generate renders c into a PDF at outputPath. imagesDir is the root of the
// local uploads mirror image references resolve against.
//
// The first pass drives a throwaway PDF instance through the full emission
// sequence and records the page each leaf starts on. The second pass renders
// into a fresh instance using those numbers and is the only one that touches
// disk - a failed conversion never leaves a partial file behind.
func Generate(ctx context.Context, c *content.Content, imagesDir, outputPath string, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Document

	leaves := buildLeaves(c.Document, cfg)
	if len(leaves) == 0 {
		return fmt.Errorf("nothing to render in %q", c.SrcName)
	}

	// both passes share the loader, its cache guarantees they embed
	// byte-identical images
	loader := newImageLoader(imagesDir, &cfg.Images, log)

	layout := newRenderer(c.Document, cfg, leaves, loader, nil, log)
	pages, err := layout.run()
	if err != nil {
		return fmt.Errorf("unable to lay out document: %w", err)
	}
	log.Debug("Layout pass finished",
		zap.Int("leaves", len(leaves)),
		zap.Int("pages", layout.pdf.PageCount()))

	if err := ctx.Err(); err != nil {
		return err
	}

	final := newRenderer(c.Document, cfg, leaves, loader, pages, log)
	if _, err := final.run(); err != nil {
		return fmt.Errorf("unable to render document: %w", err)
	}
	if layout.pdf.PageCount() != final.pdf.PageCount() {
		// something drew non-deterministically between the passes. The
		// document itself is intact, only TOC page numbers may be off by the
		// drift - keep the output and say so
		log.Warn("Pagination drifted between passes, TOC page numbers may be inexact",
			zap.Int("layout", layout.pdf.PageCount()), zap.Int("final", final.pdf.PageCount()))
	}

	if err := final.pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("unable to write PDF: %w", err)
	}

	log.Info("PDF created",
		zap.String("file", outputPath),
		zap.Int("pages", final.pdf.PageCount()),
		zap.Int("entries", len(c.Document.Entries)))
	return nil
}
