package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/justapithecus/hdrframe/grammar"
)

// ReferenceGrammar names the built-in grammar for --grammar.
const ReferenceGrammar = "reference"

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := loadYAML(path, "config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadGrammar returns the grammar named by ref: the reference grammar for
// "reference", otherwise the YAML grammar file at path ref. Limits that are
// non-zero override the file's own.
func LoadGrammar(ref string, limits grammar.Limits) (grammar.Grammar, error) {
	if ref == "" || ref == ReferenceGrammar {
		return applyLimits(grammar.Reference(), limits)
	}
	var g grammar.Grammar
	if err := loadYAML(ref, "grammar", &g); err != nil {
		return grammar.Grammar{}, err
	}
	if g.Name == "" {
		g.Name = ref
	}
	g, err := applyLimits(g, limits)
	if err != nil {
		return grammar.Grammar{}, fmt.Errorf("grammar file %s: %w", ref, err)
	}
	return g, nil
}

func loadYAML(path, what string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s file not found: %s", what, path)
		}
		return fmt.Errorf("cannot read %s file %q: %w", what, path, err)
	}

	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), out); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return nil
}
