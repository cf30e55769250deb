package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/render"
	"github.com/justapithecus/hdrframe/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version      string `json:"version" yaml:"version"`
	FrameVersion string `json:"frame_version" yaml:"frame_version"`
	Commit       string `json:"commit" yaml:"commit"`
}

// VersionCommand returns the version command.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: OutputFlags(),
		Action: func(c *cli.Context) error {
			r, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			if c.Bool("tui") {
				return cli.Exit("--tui is not supported for version command", 1)
			}
			return r.Render(VersionResponse{
				Version:      types.Version,
				FrameVersion: types.FrameVersion,
				Commit:       commit,
			})
		},
	}
}
