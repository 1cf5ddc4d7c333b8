package mcpserver

import (
	"encoding/json"

	"github.com/panbanda/focal/pkg/config"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	serverName     = "io.github.panbanda/focal"
	repositoryURL  = "https://github.com/panbanda/focal"
	imageName      = "ghcr.io/panbanda/focal"
)

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the server's source.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes one way to launch the server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// EnvVariable is an environment variable the server reads.
type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

// Transport is how clients talk to the server.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        serverName,
		Description: "Java focal-method slicing and call graph queries for minimal LLM context",
		Version:     version,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVariable{{
				Name:        config.EnvConfigPath,
				Description: "Path to a focal config file (TOML, YAML or JSON)",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}, "", "  ")
}
