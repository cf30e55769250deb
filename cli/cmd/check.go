package cmd

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/render"
	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/iox"
)

// Check limits.
const (
	// maxExhaustiveBytes bounds the input size for which every two-way
	// split is replayed.
	maxExhaustiveBytes = 64 * 1024
	// maxDivergences bounds the divergences listed in a response.
	maxDivergences = 10
	// maxRandomCuts bounds the cuts in one random split.
	maxRandomCuts = 16
)

// Divergence is one chunking whose replay differs from the whole-input
// replay.
type Divergence struct {
	Cuts []int  `json:"cuts" yaml:"cuts"`
	Diff string `json:"diff" yaml:"diff"`
}

// CheckResponse is the response for the check command.
type CheckResponse struct {
	Bytes       int          `json:"bytes" yaml:"bytes"`
	Messages    int          `json:"messages" yaml:"messages"`
	Consumed    int64        `json:"consumed" yaml:"consumed"`
	InFrame     bool         `json:"in_frame" yaml:"in_frame"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Splits      int          `json:"splits" yaml:"splits"`
	Seed        uint64       `json:"seed" yaml:"seed"`
	Diverged    int          `json:"diverged" yaml:"diverged"`
	Divergences []Divergence `json:"divergences,omitempty" yaml:"divergences,omitempty"`
}

// CheckCommand returns the check command.
func CheckCommand() *cli.Command {
	flags := append(GrammarFlags(), FormatFlag, InputFlag,
		&cli.IntFlag{
			Name:  "random",
			Usage: "Number of random multi-way splits to replay",
			Value: 100,
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for random splits (default: time-based)",
		},
	)
	return &cli.Command{
		Name:  "check",
		Usage: "Verify that chunking does not change what an input decodes to",
		Description: `Replays the input as a single chunk, then at every two-way split and at
random multi-way splits, and reports any split whose messages, final error or
consumed bytes differ. Exits 1 when a split diverges.`,
		Flags:  flags,
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
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
	if c.Int("random") < 0 {
		return cli.Exit("--random must be >= 0", 1)
	}

	seed := c.Uint64("seed")
	if !c.IsSet("seed") {
		seed = uint64(time.Now().UnixNano())
	}

	resp := checkSplits(engine, data, c.Int("random"), seed)
	if err := r.Render(resp); err != nil {
		return err
	}
	if resp.Diverged > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// checkSplits replays data whole and at the chosen splits.
func checkSplits(engine *decode.Engine, data []byte, random int, seed uint64) *CheckResponse {
	whole := engine.Replay([][]byte{data})
	resp := &CheckResponse{
		Bytes:    len(data),
		Messages: len(whole.Messages),
		Consumed: whole.Consumed,
		InFrame:  whole.InFrame,
		Seed:     seed,
	}
	if whole.Err != nil {
		resp.Error = whole.Err.Error()
	}

	try := func(cuts []int) {
		resp.Splits++
		if d := whole.Diff(engine.Replay(iox.SplitAt(data, cuts...))); d != "" {
			resp.Diverged++
			if len(resp.Divergences) < maxDivergences {
				resp.Divergences = append(resp.Divergences, Divergence{Cuts: cuts, Diff: d})
			}
		}
	}

	if len(data) <= maxExhaustiveBytes {
		for cut := 1; cut < len(data); cut++ {
			try([]int{cut})
		}
	}
	if len(data) > 1 {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		for range random {
			try(randomCuts(rng, len(data)))
		}
	}
	return resp
}

// randomCuts returns sorted, unique interior cut points for n bytes.
func randomCuts(rng *rand.Rand, n int) []int {
	k := 1 + rng.IntN(min(n-1, maxRandomCuts))
	cuts := make([]int, 0, k)
	for range k {
		cuts = append(cuts, 1+rng.IntN(n-1))
	}
	slices.Sort(cuts)
	return slices.Compact(cuts)
}
