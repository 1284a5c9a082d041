// Package convert implements the convert subcommand: finding WXR exports in
// the input (file, directory or zip archive) and driving each one through
// parsing, assembly and PDF rendering.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"wxr2pdf/archive"
	"wxr2pdf/config"
	"wxr2pdf/content"
	"wxr2pdf/render"
	"wxr2pdf/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Real-world exports sometimes lie about their encoding or omit the
	// declaration entirely, allow forcing an archaic code page
	cp := cmd.String("force-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully decoding all input with specified character set", zap.String("charset", n))
		}
	}

	// uploads mirror override, otherwise resolved next to each export
	contentDir := cmd.String("content")
	if len(contentDir) > 0 {
		if contentDir, err = filepath.Abs(contentDir); err != nil {
			return err
		}
	}
	if dir := cmd.String("fonts"); len(dir) > 0 {
		env.Cfg.Document.Fonts.Directory = dir
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, contentDir, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst, contentDir string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, contentDir, log); err != nil {
				return errors.New("unable to process directory")
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, contentDir, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		export, enc, err := isExportFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if export && len(tail) == 0 {
			// we have an export, it cannot have tail. NOTE: unlike the batch
			// paths below a single explicitly named file failing must fail the
			// run, there is nothing else to continue with
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to process file (%s): %w", head, err)
			}
			defer file.Close()
			if err := processExport(ctx, selectReader(file, enc), filepath.Base(head), filepath.Dir(head), dst, contentDir, log); err != nil {
				return fmt.Errorf("unable to process file (%s): %w", head, err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as WXR export (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding exports and processes them.
func processDir(ctx context.Context, dir, dst, contentDir string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, contentDir, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		export, enc, err := isExportFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !export {
			log.Debug("Skipping file, not recognized as export or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processExport(ctx, selectReader(file, enc), src, filepath.Dir(path), dst, contentDir, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds exports under "pathIn"
// and processes them. Image references resolve next to the archive itself - a
// zipped export cannot carry a usable uploads mirror inside.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst, contentDir string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		export, enc, err := isExportInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !export {
			log.Debug("Skipping file, not recognized as export", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		cp := state.EnvFromContext(ctx).CodePage

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processExport(ctx, selectReader(r, enc), filepath.Join(pathOut, pathInArchive), filepath.Dir(path), dst, contentDir, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processExport processes a single WXR export. "src" is part of the source
// path (always including file name) relative to the original path. "srcDir" is
// the directory the export physically lives in, used to locate the uploads
// mirror unless contentDir overrides it. "dst" is the destination directory
// where the converted file should be written.
func processExport(ctx context.Context, r io.Reader, src, srcDir, dst, contentDir string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: some of golang graphic processing libraries are not mature
		// enough, if multiple exports are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	c, err := content.Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to parse WXR source (%s): %w", src, err)
	}
	refID = c.RefID

	applyTitleTemplates(c, env)

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(c, src, dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	imagesDir := contentDir
	if imagesDir == "" {
		imagesDir = filepath.Join(srcDir, env.Cfg.Document.Images.Directory)
	}

	if err := render.Generate(ctx, c, imagesDir, outputName, log); err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	}

	return nil
}

// applyTitleTemplates overrides the title page strings when templates are
// configured; the channel metadata stays the default.
func applyTitleTemplates(c *content.Content, env *state.LocalEnv) {
	if t := env.Cfg.Document.TitlePage.TitleTemplate; t != "" {
		if s, err := expandTemplate(c, config.TitleTemplateFieldName, t); err != nil {
			env.Log.Warn("Unable to expand title template", zap.Error(err))
		} else if s = strings.TrimSpace(s); s != "" {
			c.Document.Title = s
		}
	}
	if t := env.Cfg.Document.TitlePage.SubtitleTemplate; t != "" {
		if s, err := expandTemplate(c, config.SubtitleTemplateFieldName, t); err != nil {
			env.Log.Warn("Unable to expand subtitle template", zap.Error(err))
		} else {
			c.Document.Subtitle = strings.TrimSpace(s)
		}
	}
}
