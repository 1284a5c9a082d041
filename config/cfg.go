package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// NamespacesConfig lists namespace URIs the parser accepts for each role.
	// WordPress bumps the wxr namespace with every export format revision, so
	// recognized URIs are configuration rather than literals in the parser -
	// a future export version only needs a new line here.
	NamespacesConfig struct {
		WordPress  []string `yaml:"wordpress" validate:"min=1,dive,required"`
		DublinCore []string `yaml:"dublin_core" validate:"min=1,dive,required"`
		Content    []string `yaml:"content" validate:"min=1,dive,required"`
		Excerpt    []string `yaml:"excerpt" validate:"dive,required"`
	}

	CommentsConfig struct {
		Include      bool   `yaml:"include"`
		ApprovedOnly bool   `yaml:"approved_only"`
		Title        string `yaml:"title" validate:"required_unless=Include false"`
	}

	ImagesConfig struct {
		Directory       string  `yaml:"directory" sanitize:"path_clean"`
		ScaleFactor     float64 `yaml:"scale_factor" validate:"gte=0.0"`
		MaxWidthPx      int     `yaml:"max_width_px" validate:"gte=0"`
		JPEGQuality     int     `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		UsePlaceholders bool    `yaml:"use_placeholders"`
	}

	FontsConfig struct {
		Directory string `yaml:"directory" sanitize:"path_clean" validate:"required"`
		Family    string `yaml:"family" validate:"required"`
		Mono      string `yaml:"mono"`
	}

	PageConfig struct {
		Size      string  `yaml:"size" validate:"oneof=A4 A5 Letter Legal"`
		Margin    float64 `yaml:"margin" validate:"gte=5,lte=40"`
		PageOfN   bool    `yaml:"footer_page_numbers"`
		SiteTitle bool    `yaml:"header_site_title"`
	}

	TOCPageConfig struct {
		Title       string `yaml:"title" validate:"required"`
		DotLeaders  bool   `yaml:"dot_leaders"`
		MaxTitleLen int    `yaml:"max_title_length" validate:"min=16"`
	}

	TitlePageConfig struct {
		TitleTemplate    string `yaml:"title_template"`
		SubtitleTemplate string `yaml:"subtitle_template"`
	}

	DocumentConfig struct {
		Timezone              string           `yaml:"timezone" validate:"required,timezone"`
		EntryOrder            EntryOrder       `yaml:"entry_order"`
		IncludeUnpublished    bool             `yaml:"include_unpublished"`
		KindSeparators        bool             `yaml:"kind_separator_pages"`
		OutputNameTemplate    string           `yaml:"output_name_template"`
		FileNameTransliterate bool             `yaml:"file_name_transliterate"`
		Namespaces            NamespacesConfig `yaml:"namespaces"`
		Comments              CommentsConfig   `yaml:"comments"`
		Images                ImagesConfig     `yaml:"images"`
		Fonts                 FontsConfig      `yaml:"fonts"`
		Page                  PageConfig       `yaml:"page"`
		TOCPage               TOCPageConfig    `yaml:"toc_page"`
		TitlePage             TitlePageConfig  `yaml:"title_page"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	TitleTemplateFieldName      TemplateFieldName = "title_template"
	SubtitleTemplateFieldName   TemplateFieldName = "subtitle_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(TitleTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(SubtitleTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
