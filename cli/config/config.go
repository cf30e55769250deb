package config

import (
	"fmt"
	"time"

	"github.com/justapithecus/hdrframe/grammar"
)

// Config represents an hdrframe.yaml configuration file.
// All values are optional and act as defaults for hdrframe decode flags.
// CLI flags always override config values.
type Config struct {
	Source    string           `yaml:"source"`
	Listen    string           `yaml:"listen"`
	ChunkSize int              `yaml:"chunk_size"`
	Grammar   *grammar.Grammar `yaml:"grammar"`
	Limits    grammar.Limits   `yaml:"limits"`
	Storage   StorageConfig    `yaml:"storage"`
	Policy    PolicyConfig     `yaml:"policy"`
	Adapter   AdapterConfig    `yaml:"adapter"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Sink        string `yaml:"sink"`
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// PolicyConfig holds policy defaults from the config file.
type PolicyConfig struct {
	Name           string   `yaml:"name"`
	BufferMessages int      `yaml:"buffer_messages"`
	BufferBytes    int64    `yaml:"buffer_bytes"`
	DropKinds      []string `yaml:"drop_kinds"`
	FlushCount     int      `yaml:"flush_count"`
	FlushInterval  Duration `yaml:"flush_interval"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ResolveGrammar returns the configured grammar, or the reference grammar
// when none is set. Non-zero limits override the grammar's own, and the
// result is validated.
func (c *Config) ResolveGrammar() (grammar.Grammar, error) {
	g := grammar.Reference()
	if c.Grammar != nil {
		g = *c.Grammar
	}
	return applyLimits(g, c.Limits)
}

func applyLimits(g grammar.Grammar, limits grammar.Limits) (grammar.Grammar, error) {
	if limits.MaxDigits != 0 {
		g.Limits.MaxDigits = limits.MaxDigits
	}
	if limits.MaxBody != 0 {
		g.Limits.MaxBody = limits.MaxBody
	}
	g = g.WithDefaults()
	if err := g.Validate(); err != nil {
		return grammar.Grammar{}, err
	}
	return g, nil
}
