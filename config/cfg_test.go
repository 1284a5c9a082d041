package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rupor-github/gencfg"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
document:
  timezone: "Europe/Berlin"
  entry_order: chronological
  include_unpublished: true
  images:
    scale_factor: 1.5
    max_width_px: 800
    jpeg_quality_level: 90
  comments:
    include: false
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	if cfg.Document.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %s, want Europe/Berlin", cfg.Document.Timezone)
	}

	if cfg.Document.EntryOrder != EntryOrderChronological {
		t.Errorf("EntryOrder = %v, want chronological", cfg.Document.EntryOrder)
	}

	if !cfg.Document.IncludeUnpublished {
		t.Error("Expected IncludeUnpublished to be true")
	}

	if cfg.Document.Images.ScaleFactor != 1.5 {
		t.Errorf("ScaleFactor = %f, want 1.5", cfg.Document.Images.ScaleFactor)
	}

	if cfg.Document.Images.JPEGQuality != 90 {
		t.Errorf("JPEGQuality = %d, want 90", cfg.Document.Images.JPEGQuality)
	}

	if cfg.Document.Comments.Include {
		t.Error("Expected Comments.Include to be false")
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `version: 1
document:
  timezone: "UTC"
  invalid indent
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	configWithUnknown := `version: 1
unknown_field: value
document:
  timezone: "UTC"
`

	if err := os.WriteFile(configPath, []byte(configWithUnknown), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid version", "version: 2\n"},
		{"bad timezone", "version: 1\ndocument:\n  timezone: \"Mars/Olympus\"\n"},
		{"bad page size", "version: 1\ndocument:\n  page:\n    size: A7\n"},
		{"jpeg quality too low", "version: 1\ndocument:\n  images:\n    jpeg_quality_level: 10\n"},
		{"bad entry order", "version: 1\ndocument:\n  entry_order: alphabetical\n"},
	}

	tmpDir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, "bad.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	// Verify it's valid YAML by trying to unmarshal
	cfg := &Config{}
	_, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.EntryOrder = EntryOrderChronological

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Dump() returned empty data")
	}

	// Verify we can load it back
	cfg2 := &Config{}
	_, err = unmarshalConfig(data, cfg2, false)
	if err != nil {
		t.Errorf("Dumped config cannot be loaded: %v", err)
	}

	if cfg2.Version != cfg.Version {
		t.Errorf("Version mismatch after dump/load: got %d, want %d", cfg2.Version, cfg.Version)
	}

	if cfg2.Document.EntryOrder != EntryOrderChronological {
		t.Errorf("EntryOrder mismatch after dump/load: got %v, want chronological", cfg2.Document.EntryOrder)
	}
}

func TestUnmarshalConfig(t *testing.T) {
	t.Run("valid config without processing", func(t *testing.T) {
		data := []byte(`version: 1`)
		cfg := &Config{}

		result, err := unmarshalConfig(data, cfg, false)
		if err != nil {
			t.Errorf("unmarshalConfig() error = %v", err)
		}

		if result == nil {
			t.Fatal("unmarshalConfig() returned nil")
		}

		if result.Version != 1 {
			t.Errorf("Version = %d, want 1", result.Version)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		data := []byte(`invalid: [yaml`)
		cfg := &Config{}

		_, err := unmarshalConfig(data, cfg, false)
		if err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Document.Timezone == "" {
		t.Error("Timezone should have default value")
	}

	if cfg.Document.EntryOrder != EntryOrderPagesFirst {
		t.Errorf("EntryOrder = %v, want pagesFirst default", cfg.Document.EntryOrder)
	}

	if len(cfg.Document.Namespaces.WordPress) == 0 {
		t.Error("WordPress namespace URIs should have defaults")
	}

	if cfg.Document.Images.JPEGQuality < 40 || cfg.Document.Images.JPEGQuality > 100 {
		t.Errorf("JPEGQuality = %d, should be between 40 and 100", cfg.Document.Images.JPEGQuality)
	}

	if cfg.Document.Fonts.Family == "" {
		t.Error("Fonts.Family should have default value")
	}

	if cfg.Document.TOCPage.MaxTitleLen < 16 {
		t.Errorf("TOCPage.MaxTitleLen = %d, should be at least 16", cfg.Document.TOCPage.MaxTitleLen)
	}
}

func TestLoadConfiguration_MergeWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.yaml")

	// Partial config that only overrides some values
	partialConfig := `version: 1
document:
  kind_separator_pages: false
`

	if err := os.WriteFile(configPath, []byte(partialConfig), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	// Check that explicitly set value is used
	if cfg.Document.KindSeparators {
		t.Error("Expected KindSeparators to be false from config file")
	}

	// Check that default values are still present for unspecified fields
	if cfg.Document.Timezone == "" {
		t.Error("Timezone should have default value")
	}
	if len(cfg.Document.Namespaces.Content) == 0 {
		t.Error("Content namespace URIs should have defaults")
	}
}

func TestEntryOrder_String(t *testing.T) {
	tests := []struct {
		order    EntryOrder
		expected string
	}{
		{EntryOrderPagesFirst, "pagesFirst"},
		{EntryOrderChronological, "chronological"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.order.String()
			if got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEntryOrder_String_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("String() should panic for invalid order")
		}
	}()
	invalid := EntryOrder(99)
	_ = invalid.String()
}

func TestParseEntryOrder(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  EntryOrder
		shouldErr bool
	}{
		{"pagesFirst", "pagesFirst", EntryOrderPagesFirst, false},
		{"chronological", "chronological", EntryOrderChronological, false},
		{"invalid", "invalid", EntryOrderPagesFirst, true},
		{"empty", "", EntryOrderPagesFirst, true},
		{"wrong case", "PagesFirst", EntryOrderPagesFirst, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntryOrder(tt.input)
			if tt.shouldErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if got != tt.expected {
					t.Errorf("ParseEntryOrder(%q) = %v, want %v", tt.input, got, tt.expected)
				}
			}
		})
	}
}

func TestEntryOrderNames(t *testing.T) {
	names := EntryOrderNames()
	expected := []string{"pagesFirst", "chronological"}

	if len(names) != len(expected) {
		t.Fatalf("EntryOrderNames() length = %d, want %d", len(names), len(expected))
	}

	for i, name := range expected {
		if names[i] != name {
			t.Errorf("EntryOrderNames()[%d] = %q, want %q", i, names[i], name)
		}
	}
}
