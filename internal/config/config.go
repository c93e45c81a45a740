// Package config defines the pipeline configuration surface: which
// connectors exist, what each extractor pulls, how transformers cut
// chunks and where the loader writes. The pipeline file is YAML; the
// optional application settings file is TOML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// ConnectorConfig declares one named connector instance.
type ConnectorConfig struct {
	// Type selects the registered connector implementation
	// (relational, elasticsearch, gmail, bolt).
	Type string `yaml:"type"`

	// Connection holds implementation-specific settings, parsed by
	// the connector package itself.
	Connection map[string]any `yaml:"connection"`
}

// TableConfig declares one relational table to extract.
type TableConfig struct {
	Name    string   `yaml:"table_name"`
	Schema  string   `yaml:"schema"`
	Columns []string `yaml:"columns"`
	OrderBy string   `yaml:"order_by"`

	// ExtractionMode is "full" or "incremental". Incremental requires
	// DateColumn and filters rows past the stored watermark.
	ExtractionMode string `yaml:"extraction_mode"`
	DateColumn     string `yaml:"date_column"`
}

// ExtractorConfig declares one extraction source.
type ExtractorConfig struct {
	// Connector names the connector instance to pull through.
	Connector string `yaml:"connector"`

	// Tables drives the relational extractor.
	Tables []TableConfig `yaml:"tables"`

	// Indices drives the search-index extractor.
	Indices []string `yaml:"indices"`

	// Labels and Query drive the mailbox extractor.
	Labels []string `yaml:"labels"`
	Query  string   `yaml:"query"`

	// BatchSize bounds per-partition reads. Defaults per extractor.
	BatchSize int `yaml:"batch_size"`
}

// SegmentationConfig selects a chunking strategy for the document
// transformer.
type SegmentationConfig struct {
	// Strategy is "sentence", "paragraph" or "fixed".
	Strategy string `yaml:"strategy"`

	// MaxChars bounds segment length for sentence/fixed strategies.
	MaxChars int `yaml:"max_chars"`

	// Overlap is the character overlap for the fixed strategy.
	Overlap int `yaml:"overlap"`
}

// TransformerConfig declares one transformation over an extracted
// source.
type TransformerConfig struct {
	// Type is "tabular" or "document".
	Type string `yaml:"type"`

	// Source names the extraction output to read.
	Source string `yaml:"source"`

	// IDColumn and TextColumns drive the tabular transformer.
	IDColumn    string   `yaml:"id_column"`
	TextColumns []string `yaml:"text_columns"`

	// Segmentation drives the document transformer.
	Segmentation SegmentationConfig `yaml:"segmentation"`

	// IncludeAttachments enables attachment chunking.
	IncludeAttachments bool `yaml:"include_attachments"`

	// AttachmentExtensions limits which attachments are chunked.
	AttachmentExtensions []string `yaml:"attachment_extensions"`
}

// EmbeddingsConfig configures vector generation. The same Provider,
// Model and Dimensions must be used at indexing and query time.
type EmbeddingsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Provider is "ollama" or "openai".
	Provider string `yaml:"provider"`

	// Model is the embedding model path or name.
	Model string `yaml:"path"`

	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
}

// BackendConfig configures the vector store the loader writes to.
type BackendConfig struct {
	// Connector names the search connector instance to write through.
	Connector string `yaml:"connector"`

	IndexName   string `yaml:"index_name"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
	BulkEnabled *bool  `yaml:"bulk_enabled"`
}

// Bulk reports whether bulk ingestion is enabled (the default).
func (b BackendConfig) Bulk() bool {
	return b.BulkEnabled == nil || *b.BulkEnabled
}

// LoaderConfig configures the loading stage.
type LoaderConfig struct {
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Backend    BackendConfig    `yaml:"backend"`
}

// Pipeline is the full pipeline configuration.
type Pipeline struct {
	// DataDir roots the intermediate files. Defaults to "data".
	DataDir string `yaml:"data_dir"`

	Connectors   map[string]ConnectorConfig   `yaml:"connectors"`
	Extractors   map[string]ExtractorConfig   `yaml:"extractors"`
	Transformers map[string]TransformerConfig `yaml:"transformers"`
	Loader       LoaderConfig                 `yaml:"loader"`
}

// Load reads and validates a pipeline configuration file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks cross-references between sections. Configuration
// errors are fatal and reported before any stage runs.
func (p *Pipeline) Validate() error {
	if p.DataDir == "" {
		p.DataDir = "data"
	}
	for name, cfg := range p.Connectors {
		if cfg.Type == "" {
			return fmt.Errorf("%w: connector %q has no type", domain.ErrMissingConfig, name)
		}
	}
	for name, cfg := range p.Extractors {
		connector := cfg.Connector
		if connector == "" {
			connector = name
		}
		if _, ok := p.Connectors[connector]; !ok {
			return fmt.Errorf("%w: extractor %q references unknown connector %q",
				domain.ErrMissingConfig, name, connector)
		}
	}
	for name, cfg := range p.Transformers {
		switch cfg.Type {
		case "tabular", "document":
		case "":
			return fmt.Errorf("%w: transformer %q has no type", domain.ErrMissingConfig, name)
		default:
			return fmt.Errorf("%w: transformer %q type %q", domain.ErrUnsupportedType, name, cfg.Type)
		}
		if cfg.Source == "" {
			return fmt.Errorf("%w: transformer %q has no source", domain.ErrMissingConfig, name)
		}
	}
	if p.Loader.Backend.Connector != "" {
		if _, ok := p.Connectors[p.Loader.Backend.Connector]; !ok {
			return fmt.Errorf("%w: loader backend references unknown connector %q",
				domain.ErrMissingConfig, p.Loader.Backend.Connector)
		}
	}
	return nil
}

// GetString pulls a string field out of a connection map, falling
// back to def when absent.
func GetString(m map[string]any, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// GetInt pulls an integer field out of a connection map.
func GetInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// GetStringSlice pulls a list of strings out of a connection map.
// A single string value is treated as a one-element list.
func GetStringSlice(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
