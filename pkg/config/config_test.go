package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	// Slicer stages are all enabled
	if !cfg.Slicer.PruneFields || !cfg.Slicer.PruneImports || !cfg.Slicer.PruneClasses {
		t.Errorf("Slicer = %+v, want every stage enabled", cfg.Slicer)
	}

	if len(cfg.CallGraph.EdgeTypes) != 2 {
		t.Errorf("CallGraph.EdgeTypes = %v, want CALL_DEP and CONTROL_DEP", cfg.CallGraph.EdgeTypes)
	}
	if cfg.Parser.CacheSize != 128 {
		t.Errorf("Parser.CacheSize = %d, want 128", cfg.Parser.CacheSize)
	}

	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Cache.Dir != ".focal/cache" {
		t.Errorf("Cache.Dir = %s, want .focal/cache", cfg.Cache.Dir)
	}

	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if cfg.Batch.Workers != 0 {
		t.Errorf("Batch.Workers = %d, want 0", cfg.Batch.Workers)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "focal.toml")

	content := `
[slicer]
prune_fields = false

[parser]
cache_size = 16

[cache]
enabled = false

[output]
format = "json"

[batch]
workers = 3
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Slicer.PruneFields {
		t.Error("Slicer.PruneFields should be false")
	}
	if !cfg.Slicer.PruneImports {
		t.Error("Slicer.PruneImports should keep its default")
	}
	if cfg.Parser.CacheSize != 16 {
		t.Errorf("Parser.CacheSize = %d, want 16", cfg.Parser.CacheSize)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("Batch.Workers = %d, want 3", cfg.Batch.Workers)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "focal.yaml")

	content := `
slicer:
  prune_classes: false

cache:
  ttl: 48

output:
  format: markdown
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Slicer.PruneClasses {
		t.Error("Slicer.PruneClasses should be false")
	}
	if cfg.Cache.TTL != 48 {
		t.Errorf("Cache.TTL = %d, want 48", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %s, want markdown", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "focal.json")

	content := `{
  "slicer": {
    "prune_imports": false
  },
  "output": {
    "format": "toon",
    "color": false
  }
}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Slicer.PruneImports {
		t.Error("Slicer.PruneImports should be false")
	}
	if cfg.Output.Format != "toon" {
		t.Errorf("Output.Format = %s, want toon", cfg.Output.Format)
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be false")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/focal.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "focal.toml")

	// Invalid TOML
	content := `[slicer
invalid toml`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "focal.toml")

	content := `
[output]
format = "xml"

[parser]
cache_size = -1
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() should reject invalid values")
	}
	if !strings.Contains(err.Error(), "output.format") || !strings.Contains(err.Error(), "parser.cache_size") {
		t.Errorf("error should name every invalid key, got: %v", err)
	}
}

func TestValidateEdgeTypes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CallGraph.EdgeTypes = []string{"CALL_DEP", "DATA_DEP"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should reject DATA_DEP")
	}
	if !strings.Contains(err.Error(), "DATA_DEP") {
		t.Errorf("error should name the edge type, got: %v", err)
	}
}

func TestLoadConfigSearch(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	t.Run("defaults when nothing is found", func(t *testing.T) {
		result, err := LoadConfig(WithBaseDir(t.TempDir()))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != "" {
			t.Errorf("Source = %q, want empty", result.Source)
		}
		if result.Config.Parser.CacheSize != 128 {
			t.Errorf("expected defaults, got CacheSize=%d", result.Config.Parser.CacheSize)
		}
	})

	t.Run("finds config in .focal directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, ".focal"), 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, ".focal", "focal.toml")
		if err := os.WriteFile(path, []byte("[batch]\nworkers = 7\n"), 0644); err != nil {
			t.Fatal(err)
		}

		result, err := LoadConfig(WithBaseDir(dir))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != path {
			t.Errorf("Source = %q, want %q", result.Source, path)
		}
		if result.Config.Batch.Workers != 7 {
			t.Errorf("Batch.Workers = %d, want 7", result.Config.Batch.Workers)
		}
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := LoadConfig(WithPath(filepath.Join(t.TempDir(), "missing.toml")))
		if err == nil {
			t.Error("LoadConfig() should fail for a missing explicit path")
		}
	})

	t.Run("environment variable names the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("output:\n  format: json\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvConfigPath, path)

		result, err := LoadConfig(WithBaseDir(t.TempDir()))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != path || result.Config.Output.Format != "json" {
			t.Errorf("LoadConfig() = %+v from %q, want json from %q", result.Config.Output, result.Source, path)
		}
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	content := `
[parser]
cache_size = 999
`
	if err := os.WriteFile(filepath.Join(tmpDir, "focal.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Parser.CacheSize != 999 {
		t.Errorf("LoadOrDefault() should load from file, got CacheSize=%d", cfg.Parser.CacheSize)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		// Excluded directories
		{"build/generated/A.java", true},
		{"target/classes/A.java", true},
		{filepath.Join("src", ".git", "A.java"), true},

		// Excluded patterns
		{"src/com/acme/package-info.java", true},
		{"module-info.java", true},

		// Not excluded
		{"src/com/acme/Service.java", false},
		{filepath.Join("src", "builder", "Builder.java"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
