package cmd

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/iox"
)

// readInput reads all of --input, or stdin.
func readInput(c *cli.Context) ([]byte, error) {
	in, _, err := openInput(c, c.String("input"))
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(in)
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// loadEngine builds a decode engine from the grammar flags and --config.
func loadEngine(c *cli.Context) (*decode.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	g, err := resolveGrammar(c, cfg)
	if err != nil {
		return nil, err
	}
	return decode.New(g)
}
