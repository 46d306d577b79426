// Package config loads the tool configuration from layered TOML files:
// built-in defaults, the system path, the user path and finally the
// project file, later layers overriding earlier ones.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Dictionary configures where the schema dictionary comes from.
type Dictionary struct {
	EntityTable string   `toml:"entity_table"`
	TypeTable   string   `toml:"type_table"`
	Cache       string   `toml:"cache"`
	Extensions  []string `toml:"extensions"`
}

// Validation configures the validation run itself. Suppress lists
// finding kinds to drop from the report.
type Validation struct {
	MaxDepth int      `toml:"max_depth"`
	Output   string   `toml:"output"`
	Suppress []string `toml:"suppress"`
}

type Config struct {
	Dictionary Dictionary `toml:"dictionary"`
	Validation Validation `toml:"validation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Validation.Output = "validation_output.csv"
	if home, err := os.UserHomeDir(); err == nil {
		c.Dictionary.Cache = filepath.Join(home, ".local/share/ifccheck/dictionary.db")
	}
	return c
}

// Load builds the effective configuration for a project directory.
// Missing files are skipped; a file that exists but does not parse is an
// error.
func Load(projectRoot string) (*Config, error) {
	c := Default()

	paths := []string{
		"/usr/share/ifccheck/ifccheck.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".local/share/ifccheck/ifccheck.toml"))
	}
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, "ifccheck.toml"))
	}

	for _, path := range paths {
		if err := mergeFile(c, path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func mergeFile(c *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return toml.Unmarshal(content, c)
}
