package render

import (
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"

	"wxr2pdf/config"
)

// registerFonts loads the configured UTF-8 faces into the writer. Face files
// follow the DejaVu naming convention: Family.ttf, Family-Bold.ttf and
// Family-Oblique.ttf (or -Italic), plus a single mono face. Core PDF fonts are
// latin-1 only, so missing files are fatal rather than silently degrading
// everything outside ASCII.
func registerFonts(pdf *fpdf.Fpdf, cfg *config.FontsConfig) error {
	register := func(family, style string, names ...string) error {
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(cfg.Directory, name)); err == nil {
				// bare name - the writer resolves it against its font
				// directory, set to cfg.Directory at construction
				pdf.AddUTF8Font(family, style, name)
				return nil
			}
		}
		return fmt.Errorf("no font file for %s style %q under %s (tried %v)", family, style, cfg.Directory, names)
	}

	if err := register(cfg.Family, "", cfg.Family+".ttf"); err != nil {
		return err
	}
	if err := register(cfg.Family, "B", cfg.Family+"-Bold.ttf"); err != nil {
		return err
	}
	if err := register(cfg.Family, "I", cfg.Family+"-Oblique.ttf", cfg.Family+"-Italic.ttf"); err != nil {
		return err
	}
	if cfg.Mono != "" {
		if err := register(cfg.Mono, "", cfg.Mono+".ttf"); err != nil {
			return err
		}
	}
	if pdf.Err() {
		return fmt.Errorf("unable to register fonts: %w", pdf.Error())
	}
	return nil
}

// monoFamily returns the face used for fixed-width output (TOC leaders,
// preformatted blocks), falling back to the text face when no mono font is
// configured.
func monoFamily(cfg *config.FontsConfig) string {
	if cfg.Mono != "" {
		return cfg.Mono
	}
	return cfg.Family
}
