// Package config loads the optional .checklfs.yaml of a repository.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is looked up at the worktree root.
const FileName = ".checklfs.yaml"

// Config holds settings shared by the scan and tree commands. Zero values
// mean "use the command default".
type Config struct {
	Exclude           []string `yaml:"exclude"`
	Concurrency       int      `yaml:"concurrency"`
	Attributes        *bool    `yaml:"attributes"` // Restrict candidates to filter=lfs paths
	Store             string   `yaml:"store"`      // Object store root, relative to the worktree
	IncludeNotTracked bool     `yaml:"include_not_tracked"`
}

// UseAttributes reports whether candidates are restricted by .gitattributes.
// Unset means yes.
func (c Config) UseAttributes() bool {
	return c.Attributes == nil || *c.Attributes
}

func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Load reads FileName from root. A missing file yields the zero Config.
func Load(root string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}

	if cfg.Store != "" && !filepath.IsAbs(cfg.Store) {
		cfg.Store = filepath.Join(root, cfg.Store)
	}
	return cfg, nil
}
