package config

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestReportFinalize(t *testing.T) {
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	tmpDir := t.TempDir()
	storedPath := filepath.Join(tmpDir, "result.pdf")
	if err := os.WriteFile(storedPath, []byte("pdf bytes"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r.Store("result", storedPath)
	r.StoreData("config/config.yaml", []byte("version: 1\n"))
	// absent files are silently skipped during finalization
	r.Store("missing", filepath.Join(tmpDir, "nonexistent"))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	arc, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer arc.Close()

	found := map[string]bool{}
	for _, f := range arc.File {
		found[f.Name] = true
	}

	for _, want := range []string{"MANIFEST", "result", "config/config.yaml"} {
		if !found[want] {
			t.Errorf("expected %q in report archive, have %v", want, found)
		}
	}
	if found["missing"] {
		t.Error("absent file should not appear in report archive")
	}
}

func TestReportStore_OverwritePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("name", "/some/path")

	defer func() {
		if recover() == nil {
			t.Error("Store with different path for same name should panic")
		}
	}()
	r.Store("name", "/other/path")
}

func TestReportName(t *testing.T) {
	var r *Report
	if r.Name() != "" {
		t.Error("Name on nil report should be empty")
	}

	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())
	defer reportFile.Close()

	r = &Report{entries: make(map[string]entry), file: reportFile}
	if r.Name() == "" {
		t.Error("Name should return underlying file name")
	}
	if !filepath.IsAbs(r.Name()) {
		t.Errorf("Name should be absolute, got %q", r.Name())
	}
}
