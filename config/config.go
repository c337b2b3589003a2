// Package config handles pscheme.toml interpreter configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a pscheme.toml file.
type Config struct {
	REPL    REPL     `toml:"repl"`
	GC      GC       `toml:"gc"`
	Preload []string `toml:"preload"`

	// Dir is the directory containing the pscheme.toml file (set at load time).
	Dir string `toml:"-"`
}

// REPL configures the interactive loop.
type REPL struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

// GC configures the pair-store collector.
type GC struct {
	Threshold int  `toml:"threshold"`
	Log       bool `toml:"log"`
}

// Default returns the configuration used when no pscheme.toml exists.
func Default() *Config {
	return &Config{
		REPL: REPL{Prompt: "> "},
		GC:   GC{Threshold: 10000},
	}
}

// Load parses a pscheme.toml file from the given directory. A missing
// file is not an error; the defaults apply.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "pscheme.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	cfg.Dir = dir
	return cfg, nil
}
