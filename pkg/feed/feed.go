// Package feed loads and validates the dependency edge feed produced by the
// whole-program analyzer.
package feed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/focal/pkg/models"
)

// ErrInvalidFeed is returned when a feed cannot be decoded or fails schema
// validation.
var ErrInvalidFeed = errors.New("invalid dependency feed")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/focal/feed.schema.json"

// Format is the serialization of a feed document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension. Anything other than
// .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse feed schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add feed schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Load reads and validates the feed at path.
func Load(path string) ([]models.DependencyEdge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	edges, err := Decode(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}

// Decode validates data against the feed schema and decodes its edges.
func Decode(data []byte, format Format) ([]models.DependencyEdge, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	var edges []models.DependencyEdge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	if edges == nil {
		edges = []models.DependencyEdge{}
	}
	return edges, nil
}

// Validate checks a JSON feed document against the embedded schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	if doc == nil {
		doc = []any{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	return out, nil
}
