// Package cmd provides CLI commands for the hdrframe binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/config"
	"github.com/justapithecus/hdrframe/grammar"
)

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (decode, trace, show)",
	}

	// InputFlag names the input file; empty or "-" reads stdin.
	InputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Input file (default: stdin)",
	}

	// ConfigFlag names an hdrframe.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to hdrframe.yaml config file",
	}

	// GrammarFlag selects the frame grammar.
	GrammarFlag = &cli.StringFlag{
		Name:    "grammar",
		Aliases: []string{"g"},
		Usage:   "Grammar: \"reference\" or path to a grammar YAML file",
		Value:   config.ReferenceGrammar,
	}

	// MaxBodyFlag overrides the grammar's body limit.
	MaxBodyFlag = &cli.IntFlag{
		Name:  "max-body",
		Usage: "Longest body accepted, in bytes",
	}

	// MaxDigitsFlag overrides the grammar's digit-run limit.
	MaxDigitsFlag = &cli.IntFlag{
		Name:  "max-digits",
		Usage: "Longest numeric header suffix accepted",
	}
)

// OutputFlags returns the flags shared by every command that renders output.
func OutputFlags() []cli.Flag {
	return []cli.Flag{FormatFlag, TUIFlag}
}

// GrammarFlags returns the flags that select and bound the grammar.
func GrammarFlags() []cli.Flag {
	return []cli.Flag{ConfigFlag, GrammarFlag, MaxBodyFlag, MaxDigitsFlag}
}

// loadConfig loads --config, or returns an empty config when unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// resolveGrammar applies --grammar and the limit flags over the config.
func resolveGrammar(c *cli.Context, cfg *config.Config) (grammar.Grammar, error) {
	limits := cfg.Limits
	if c.IsSet("max-body") {
		limits.MaxBody = c.Int("max-body")
	}
	if c.IsSet("max-digits") {
		limits.MaxDigits = c.Int("max-digits")
	}
	if c.IsSet("grammar") || cfg.Grammar == nil {
		return config.LoadGrammar(c.String("grammar"), limits)
	}
	resolved := *cfg
	resolved.Limits = limits
	return resolved.ResolveGrammar()
}

// Flag-or-config lookups: an explicitly set flag wins, then a non-zero
// config value, then the flag default.

func stringOr(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) || fallback == "" {
		return c.String(name)
	}
	return fallback
}

func intOr(c *cli.Context, name string, fallback int) int {
	if c.IsSet(name) || fallback == 0 {
		return c.Int(name)
	}
	return fallback
}

func int64Or(c *cli.Context, name string, fallback int64) int64 {
	if c.IsSet(name) || fallback == 0 {
		return c.Int64(name)
	}
	return fallback
}

func durationOr(c *cli.Context, name string, fallback time.Duration) time.Duration {
	if c.IsSet(name) || fallback == 0 {
		return c.Duration(name)
	}
	return fallback
}

func boolOr(c *cli.Context, name string, fallback bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fallback || c.Bool(name)
}

func sliceOr(c *cli.Context, name string, fallback []string) []string {
	if c.IsSet(name) || len(fallback) == 0 {
		return c.StringSlice(name)
	}
	return fallback
}
