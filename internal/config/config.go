// Package config loads cmd/graphjson's optional YAML defaults file and
// merges it with CLI flag values, grounded on
// marcohefti-zero-context-lab/internal/config's merge-then-override
// pattern: flags always win over a loaded file, a loaded file always wins
// over the package's built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the shape of an optional --config YAML file: persisted default
// values for flags the caller did not set explicitly.
type File struct {
	LogLevel  string `yaml:"logLevel,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty"`
	Indent    *bool  `yaml:"indent,omitempty"`
}

// Load reads and parses the YAML file at path. A missing path is not an
// error; it returns a zero-value File so callers fall back to defaults.
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return f, nil
}

// Merged is the final, fully-resolved configuration for one CLI
// invocation.
type Merged struct {
	LogLevel  string
	LogFormat string
	Indent    bool
}

// Resolve merges file defaults under flag values: a flag value only wins
// when flagSet reports that flag as explicitly set by the user, so a
// flag's zero-value default never silently shadows a file setting.
func Resolve(file File, logLevel, logFormat string, logLevelSet, logFormatSet bool, indent bool, indentSet bool) Merged {
	m := Merged{
		LogLevel:  "info",
		LogFormat: "text",
		Indent:    true,
	}
	if file.LogLevel != "" {
		m.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		m.LogFormat = file.LogFormat
	}
	if file.Indent != nil {
		m.Indent = *file.Indent
	}
	if logLevelSet {
		m.LogLevel = logLevel
	}
	if logFormatSet {
		m.LogFormat = logFormat
	}
	if indentSet {
		m.Indent = indent
	}
	return m
}
