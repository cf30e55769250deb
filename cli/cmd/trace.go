package cmd

import (
	"fmt"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/render"
	"github.com/justapithecus/hdrframe/cli/tui"
	"github.com/justapithecus/hdrframe/iox"
)

// TraceCommand returns the trace command.
func TraceCommand() *cli.Command {
	flags := append(GrammarFlags(), OutputFlags()...)
	flags = append(flags, InputFlag,
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Split the input into chunks of this many bytes (0 = one chunk)",
		},
		&cli.IntSliceFlag{
			Name:  "cut",
			Usage: "Split the input at these offsets (repeatable, overrides --chunk-size)",
		},
	)
	return &cli.Command{
		Name:   "trace",
		Usage:  "Show decoder state after every step over a chunked input",
		Flags:  flags,
		Action: traceAction,
	}
}

func traceAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	engine, err := loadEngine(c)
	if err != nil {
		return err
	}
	data, err := readInput(c)
	if err != nil {
		return err
	}
	chunks, err := traceChunks(data, c.Int("chunk-size"), c.IntSlice("cut"))
	if err != nil {
		return err
	}

	steps := engine.Trace(chunks)
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewTrace, steps)
	}
	return r.Render(steps)
}

// traceChunks splits data by explicit cuts, or every size bytes.
func traceChunks(data []byte, size int, cuts []int) ([][]byte, error) {
	if len(cuts) > 0 {
		cuts = slices.Clone(cuts)
		slices.Sort(cuts)
		cuts = slices.Compact(cuts)
		if cuts[0] < 0 || cuts[len(cuts)-1] > len(data) {
			return nil, fmt.Errorf("--cut offsets must be within [0, %d]", len(data))
		}
		return iox.SplitAt(data, cuts...), nil
	}
	if size < 0 {
		return nil, fmt.Errorf("--chunk-size must be >= 0, got %d", size)
	}
	if size == 0 {
		return [][]byte{data}, nil
	}
	return iox.SplitEvery(data, size), nil
}
