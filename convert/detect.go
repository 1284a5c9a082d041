package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// srcEncoding is the BOM-detected encoding of an input file. The XML reader
// handles declared encodings itself, but BOMs have to be stripped and UTF-16/32
// transcoded before it ever sees the bytes.
type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF sniffs the BOM. UTF-32LE must be checked before UTF-16LE, its BOM
// is a superset.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	default:
		return encUnknown
	}
}

// selectReader wraps r so downstream always consumes UTF-8 without a BOM.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	default:
		// this should never happen
		panic("unsupported source encoding requested")
	}
}

// wxrType is a custom matcher so exports are recognized by content, not just
// extension. Detection is loose on purpose: BOMs and prolog whitespace vary
// wildly between exporters.
var wxrType = filetype.NewType("wxr", "application/rss+xml")

func wxrMatcher(buf []byte) bool {
	head := buf
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<rss"))
}

func init() {
	filetype.AddMatcher(wxrType, wxrMatcher)
}

func hasExportExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".wxr":
		return true
	}
	return false
}

// isArchiveFile reports whether path looks like a zip archive: extension first
// (cheap), then content magic.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	buf := make([]byte, 512)
	if err := readHead(path, buf); err != nil {
		return false, err
	}
	return filetype.IsArchive(buf), nil
}

// isExportFile reports whether path is a WXR export and what BOM it carries.
func isExportFile(path string) (bool, srcEncoding, error) {
	if !hasExportExt(path) {
		return false, encUnknown, nil
	}
	buf := make([]byte, 512)
	if err := readHead(path, buf); err != nil {
		return false, encUnknown, err
	}
	return matchExport(buf)
}

// isExportInArchive is isExportFile for a zip member.
func isExportInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !hasExportExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	buf := make([]byte, 512)
	if _, err := io.ReadFull(r, buf); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, encUnknown, err
	}
	return matchExport(buf)
}

func matchExport(buf []byte) (bool, srcEncoding, error) {
	enc := detectUTF(buf)
	switch enc {
	case encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian:
		// matcher works on UTF-8 text, trust the extension for wide encodings
		return true, enc, nil
	}
	kind, err := filetype.Match(bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF}))
	if err != nil {
		return false, enc, err
	}
	return kind != types.Unknown && kind == wxrType, enc, nil
}

func readHead(path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.ReadFull(f, buf); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	return nil
}
