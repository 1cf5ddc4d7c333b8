package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigPath names a config file to load instead of searching.
const EnvConfigPath = "FOCAL_CONFIG"

// Config holds all configuration options for focal.
type Config struct {
	// Pruning stages of the slicer
	Slicer SlicerConfig `koanf:"slicer" toml:"slicer"`

	// Call graph construction
	CallGraph CallGraphConfig `koanf:"callgraph" toml:"callgraph"`

	// Parse tree memoization
	Parser ParserConfig `koanf:"parser" toml:"parser"`

	// File exclusion patterns for directory inputs
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Result cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Batch slicing
	Batch BatchConfig `koanf:"batch" toml:"batch"`
}

// SlicerConfig toggles the optional slicer stages. Comment stripping and
// method reachability always run.
type SlicerConfig struct {
	PruneFields  bool `koanf:"prune_fields" toml:"prune_fields"`
	PruneImports bool `koanf:"prune_imports" toml:"prune_imports"`
	PruneClasses bool `koanf:"prune_classes" toml:"prune_classes"`
}

// CallGraphConfig controls which dependency types become call graph edges.
type CallGraphConfig struct {
	EdgeTypes []string `koanf:"edge_types" toml:"edge_types"`
}

// ParserConfig controls the parse cache.
type ParserConfig struct {
	CacheSize int `koanf:"cache_size" toml:"cache_size"` // 0 disables
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"` // honor .gitignore files
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// BatchConfig controls parallel slicing.
type BatchConfig struct {
	Workers int `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Slicer: SlicerConfig{
			PruneFields:  true,
			PruneImports: true,
			PruneClasses: true,
		},
		CallGraph: CallGraphConfig{
			EdgeTypes: []string{"CALL_DEP", "CONTROL_DEP"},
		},
		Parser: ParserConfig{
			CacheSize: 128,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"package-info.java",
				"module-info.java",
			},
			Dirs: []string{
				".git",
				".focal",
				"build",
				"target",
				"out",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".focal/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadResult is a loaded config and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path    string
	baseDir string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithBaseDir searches for config files relative to dir.
func WithBaseDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.baseDir = dir
	}
}

// LoadConfig resolves the config file from an explicit path, the
// FOCAL_CONFIG environment variable, or the standard search locations, in
// that order. An explicitly named file must exist.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{baseDir: "."}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	if found := FindConfigFile(o.baseDir); found != "" {
		cfg, err := Load(found)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: found}, nil
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// FindConfigFile returns the first standard config file under dir, or "".
func FindConfigFile(dir string) string {
	configNames := []string{
		"focal.toml",
		"focal.yaml",
		"focal.yml",
		"focal.json",
		".focal.toml",
		".focal.yaml",
		".focal.yml",
		".focal.json",
	}

	for _, sub := range []string{".", ".focal"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

var validFormats = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"toon":     true,
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !validFormats[c.Output.Format] {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	for _, t := range c.CallGraph.EdgeTypes {
		if t != "CALL_DEP" && t != "CONTROL_DEP" {
			errs = append(errs, fmt.Errorf("callgraph.edge_types: %q is not a call graph edge type", t))
		}
	}
	if c.Parser.CacheSize < 0 {
		errs = append(errs, errors.New("parser.cache_size: must not be negative"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl: must not be negative"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("batch.workers: must not be negative"))
	}
	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be skipped when walking a directory.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
