package xlflatten

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML file form of Options. Canonical fields are nested;
// the flat top-level keys of older config files are still accepted and
// resolved once at load time; nested values win when both are present.
type Config struct {
	Sheets []string `yaml:"sheets"`

	Detection struct {
		MaxMetadataRows int `yaml:"max_metadata_rows"`
		HeaderThreshold int `yaml:"header_threshold"`
	} `yaml:"detection"`

	Extraction struct {
		ChunkSize       int     `yaml:"chunk_size"`
		IncludeEmpty    bool    `yaml:"include_empty"`
		MemoryThreshold float64 `yaml:"memory_threshold"`
	} `yaml:"extraction"`

	// Legacy flat keys.
	LegacyMaxMetadataRows int     `yaml:"max_metadata_rows"`
	LegacyHeaderThreshold int     `yaml:"header_threshold"`
	LegacyChunkSize       int     `yaml:"chunk_size"`
	LegacyIncludeEmpty    bool    `yaml:"include_empty"`
	LegacyMemoryThreshold float64 `yaml:"memory_threshold"`
}

// LoadConfig reads a YAML config file and resolves it into Options.
func LoadConfig(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig resolves YAML config bytes into validated Options.
func ParseConfig(data []byte) (Options, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Options{}, fmt.Errorf("parsing config: %w", err)
	}
	opts := cfg.resolve()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// resolve folds legacy flat keys into the canonical nested ones.
func (c Config) resolve() Options {
	opts := Options{
		Sheets:          c.Sheets,
		MaxMetadataRows: c.Detection.MaxMetadataRows,
		HeaderThreshold: c.Detection.HeaderThreshold,
		ChunkSize:       c.Extraction.ChunkSize,
		IncludeEmpty:    c.Extraction.IncludeEmpty || c.LegacyIncludeEmpty,
		MemoryThreshold: c.Extraction.MemoryThreshold,
	}
	if opts.MaxMetadataRows == 0 {
		opts.MaxMetadataRows = c.LegacyMaxMetadataRows
	}
	if opts.HeaderThreshold == 0 {
		opts.HeaderThreshold = c.LegacyHeaderThreshold
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = c.LegacyChunkSize
	}
	if opts.MemoryThreshold == 0 {
		opts.MemoryThreshold = c.LegacyMemoryThreshold
	}
	return opts
}
